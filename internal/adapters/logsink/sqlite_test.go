package logsink_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osavioguedes/autonomous-vehicle/internal/adapters/logsink"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

func TestSQLiteSink_WriteThenRecentLogsRoundTrips(t *testing.T) {
	// Arrange
	sink, err := logsink.NewSQLiteSink("")
	require.NoError(t, err)
	defer sink.Close()

	entry := truck.LogEntry{
		ID:               uuid.New(),
		TruckID:          4,
		Timestamp:        time.Now(),
		Status:           "RUNNING",
		Mode:             "AUTOMATIC",
		PositionX:        1,
		PositionY:        2,
		Theta:            0.5,
		Velocity:         3,
		EventDescription: "Destino alcançado",
		Temperature:      28.4,
	}

	// Act
	require.NoError(t, sink.Write(entry))
	logs, err := sink.RecentLogs(4, 10)

	// Assert
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entry.EventDescription, logs[0].EventDescription)
	assert.Equal(t, entry.Velocity, logs[0].Velocity)
}

func TestSQLiteSink_RecentLogsOrdersNewestFirstAndRespectsLimit(t *testing.T) {
	// Arrange
	sink, err := logsink.NewSQLiteSink("")
	require.NoError(t, err)
	defer sink.Close()

	base := time.Now()
	for i := 0; i < 5; i++ {
		entry := truck.LogEntry{
			ID:               uuid.New(),
			TruckID:          1,
			Timestamp:        base.Add(time.Duration(i) * time.Second),
			EventDescription: "tick",
		}
		require.NoError(t, sink.Write(entry))
	}

	// Act
	logs, err := sink.RecentLogs(1, 2)

	// Assert
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.True(t, logs[0].Timestamp.After(logs[1].Timestamp) || logs[0].Timestamp.Equal(logs[1].Timestamp))
}

func TestSQLiteSink_RecentLogsFiltersByTruckID(t *testing.T) {
	// Arrange
	sink, err := logsink.NewSQLiteSink("")
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Write(truck.LogEntry{ID: uuid.New(), TruckID: 1, Timestamp: time.Now()}))
	require.NoError(t, sink.Write(truck.LogEntry{ID: uuid.New(), TruckID: 2, Timestamp: time.Now()}))

	// Act
	logs, err := sink.RecentLogs(2, 10)

	// Assert
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 2, logs[0].TruckID)
}
