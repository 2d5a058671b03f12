package logsink_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osavioguedes/autonomous-vehicle/internal/adapters/logsink"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

type recordingSink struct {
	entries []truck.LogEntry
	err     error
	closed  bool
}

func (s *recordingSink) Write(entry truck.LogEntry) error {
	s.entries = append(s.entries, entry)
	return s.err
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func TestMultiSink_WriteFansOutToEverySink(t *testing.T) {
	// Arrange
	a, b := &recordingSink{}, &recordingSink{}
	multi := logsink.NewMultiSink(a, b)
	entry := truck.LogEntry{TruckID: 1, Timestamp: time.Now()}

	// Act
	err := multi.Write(entry)

	// Assert
	require.NoError(t, err)
	assert.Len(t, a.entries, 1)
	assert.Len(t, b.entries, 1)
}

func TestMultiSink_WriteReturnsFirstErrorButStillWritesToAllSinks(t *testing.T) {
	// Arrange
	failing := &recordingSink{err: errors.New("disk full")}
	ok := &recordingSink{}
	multi := logsink.NewMultiSink(failing, ok)

	// Act
	err := multi.Write(truck.LogEntry{TruckID: 2, Timestamp: time.Now()})

	// Assert
	require.Error(t, err)
	assert.Len(t, ok.entries, 1)
}

func TestMultiSink_CloseClosesEverySink(t *testing.T) {
	// Arrange
	a, b := &recordingSink{}, &recordingSink{}
	multi := logsink.NewMultiSink(a, b)

	// Act
	err := multi.Close()

	// Assert
	require.NoError(t, err)
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
