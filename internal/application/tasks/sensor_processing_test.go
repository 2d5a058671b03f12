package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osavioguedes/autonomous-vehicle/internal/application/common"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

type stubSensorSource struct {
	sample truck.SensorSample
	err    error
}

func (s *stubSensorSource) Read(ctx context.Context) (truck.SensorSample, error) {
	return s.sample, s.err
}

func TestSensorProcessingTask_WritesFilteredSampleToBuffer(t *testing.T) {
	// Arrange
	buffer := truck.NewCircularBuffer(10)
	source := &stubSensorSource{sample: truck.SensorSample{PositionX: 10, Velocity: 5, Temperature: 40}}
	task := NewSensorProcessingTask(source, buffer, 3, 10*time.Millisecond)

	// Act
	task.tick(context.Background(), common.LoggerFromContext(context.Background()))

	// Assert
	latest, ok := buffer.ReadLatest()
	require.True(t, ok)
	assert.Equal(t, 10.0, latest.PositionX)
	assert.Equal(t, 5.0, latest.Velocity)
}

func TestSensorProcessingTask_ReadErrorDoesNotWriteSample(t *testing.T) {
	// Arrange
	buffer := truck.NewCircularBuffer(10)
	source := &stubSensorSource{err: errors.New("sensor offline")}
	task := NewSensorProcessingTask(source, buffer, 3, 10*time.Millisecond)

	// Act
	task.tick(context.Background(), common.LoggerFromContext(context.Background()))

	// Assert
	assert.True(t, buffer.IsEmpty())
}
