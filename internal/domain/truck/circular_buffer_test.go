package truck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

func sample(v float64) truck.FilteredSample {
	return truck.FilteredSample{Velocity: v}
}

func TestCircularBuffer_ReadLatestAfterWrites(t *testing.T) {
	// Arrange
	buf := truck.NewCircularBuffer(3)

	// Act
	buf.Write(sample(1))
	buf.Write(sample(2))
	latest, ok := buf.ReadLatest()

	// Assert
	require.True(t, ok)
	assert.Equal(t, 2.0, latest.Velocity)
}

func TestCircularBuffer_OverwritesOldestWhenFull(t *testing.T) {
	// Arrange
	buf := truck.NewCircularBuffer(2)
	buf.Write(sample(1))
	buf.Write(sample(2))

	// Act - buffer capacity 2, this push evicts sample(1)
	buf.Write(sample(3))
	all := buf.ReadAll()

	// Assert
	require.Len(t, all, 2)
	assert.Equal(t, 2.0, all[0].Velocity)
	assert.Equal(t, 3.0, all[1].Velocity)
	assert.True(t, buf.IsFull())
}

func TestCircularBuffer_ReadLastN(t *testing.T) {
	// Arrange
	buf := truck.NewCircularBuffer(5)
	for i := 1; i <= 4; i++ {
		buf.Write(sample(float64(i)))
	}

	// Act
	last2 := buf.ReadLastN(2)

	// Assert
	require.Len(t, last2, 2)
	assert.Equal(t, 3.0, last2[0].Velocity)
	assert.Equal(t, 4.0, last2[1].Velocity)
}

func TestCircularBuffer_ClearEmptiesBuffer(t *testing.T) {
	// Arrange
	buf := truck.NewCircularBuffer(3)
	buf.Write(sample(1))

	// Act
	buf.Clear()

	// Assert
	assert.True(t, buf.IsEmpty())
	assert.Equal(t, 0, buf.Size())
	_, ok := buf.ReadLatest()
	assert.False(t, ok)
}
