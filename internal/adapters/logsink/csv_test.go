package logsink_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osavioguedes/autonomous-vehicle/internal/adapters/logsink"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

func TestCSVSink_WriteCreatesHeaderOnlyOnce(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	sink, err := logsink.NewCSVSink(dir, 3)
	require.NoError(t, err)
	defer sink.Close()

	entry := truck.LogEntry{
		ID:               uuid.New(),
		Timestamp:        time.Unix(1700000000, 0),
		TruckID:          3,
		Status:           "RUNNING",
		Mode:             "AUTOMATIC",
		PositionX:        1.5,
		PositionY:        2.25,
		Theta:            0.125,
		Velocity:         2.0,
		EventDescription: "Status normal",
		Temperature:      30.5,
	}

	// Act
	require.NoError(t, sink.Write(entry))
	require.NoError(t, sink.Write(entry))
	require.NoError(t, sink.Close())

	// Assert
	contents, err := os.ReadFile(filepath.Join(dir, "truck_3.csv"))
	require.NoError(t, err)

	header := "timestamp,truck_id,status,mode,position_x,position_y,theta,velocity,temperature,electrical_fault,hydraulic_fault,event_description\n"
	assert.Equal(t, 1, countOccurrences(string(contents), header))
}

func TestCSVSink_WriteFormatsFieldsWithFixedPrecision(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	sink, err := logsink.NewCSVSink(dir, 9)
	require.NoError(t, err)
	defer sink.Close()

	entry := truck.LogEntry{
		Timestamp:        time.Unix(1700000000, 500000000),
		TruckID:          9,
		Status:           "FAULT",
		Mode:             "MANUAL",
		PositionX:        10.126,
		PositionY:        -5.004,
		Theta:            1.23456,
		Velocity:         3.14159,
		EventDescription: "Falha elétrica",
		Temperature:      42.08,
		ElectricalFault:  true,
	}

	// Act
	require.NoError(t, sink.Write(entry))
	require.NoError(t, sink.Close())

	// Assert
	contents, err := os.ReadFile(filepath.Join(dir, "truck_9.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(contents), "FAULT,MANUAL,10.13,-5.00,1.2346,3.14,42.1,1,0,")
}

func TestCSVSink_ReopensExistingFileWithoutDuplicatingHeader(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	first, err := logsink.NewCSVSink(dir, 1)
	require.NoError(t, err)
	require.NoError(t, first.Write(truck.LogEntry{TruckID: 1, Timestamp: time.Now()}))
	require.NoError(t, first.Close())

	// Act
	second, err := logsink.NewCSVSink(dir, 1)
	require.NoError(t, err)
	require.NoError(t, second.Write(truck.LogEntry{TruckID: 1, Timestamp: time.Now()}))
	require.NoError(t, second.Close())

	// Assert
	contents, err := os.ReadFile(filepath.Join(dir, "truck_1.csv"))
	require.NoError(t, err)
	header := "timestamp,truck_id,status,mode,position_x,position_y,theta,velocity,temperature,electrical_fault,hydraulic_fault,event_description\n"
	assert.Equal(t, 1, countOccurrences(string(contents), header))
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
			i += len(needle) - 1
		}
	}
	return count
}
