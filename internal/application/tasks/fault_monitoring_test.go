package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osavioguedes/autonomous-vehicle/internal/application/common"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

func TestFaultMonitoringTask_EmitsOnRisingEdgeOnly(t *testing.T) {
	// Arrange
	bus := truck.NewEventBus()
	sub := bus.Subscribe(truck.EventTemperatureFault)
	defer sub.Close()
	source := &stubSensorSource{sample: truck.SensorSample{Temperature: 120, Timestamp: time.Now()}}
	task := NewFaultMonitoringTask(source, bus, 10*time.Millisecond, shared.NewLiveThresholds(100.0, 1.0))
	logger := common.LoggerFromContext(context.Background())

	// Act - first tick crosses threshold, second tick stays above it
	task.tick(context.Background(), logger)
	task.tick(context.Background(), logger)

	// Assert - exactly one event delivered despite two consecutive ticks
	_, ok1 := sub.TryReceive()
	_, ok2 := sub.TryReceive()
	assert.True(t, ok1)
	assert.False(t, ok2)
}

func TestFaultMonitoringTask_EmitsClearedOnFallingEdge(t *testing.T) {
	// Arrange
	bus := truck.NewEventBus()
	cleared := bus.Subscribe(truck.EventFaultCleared)
	defer cleared.Close()
	source := &stubSensorSource{sample: truck.SensorSample{ElectricalFault: true, Timestamp: time.Now()}}
	task := NewFaultMonitoringTask(source, bus, 10*time.Millisecond, shared.NewLiveThresholds(100.0, 1.0))
	logger := common.LoggerFromContext(context.Background())

	task.tick(context.Background(), logger)

	// Act
	source.sample = truck.SensorSample{ElectricalFault: false, Timestamp: time.Now()}
	task.tick(context.Background(), logger)

	// Assert
	ev, ok := cleared.TryReceive()
	require.True(t, ok)
	assert.Equal(t, "electrical", ev.Data["type"])
}

func TestFaultMonitoringTask_ReadsRawSamplesNotTheFilteredBuffer(t *testing.T) {
	// Arrange - a raw spike that a 5-sample moving average would smooth below
	// threshold must still be judged directly against the raw reading.
	bus := truck.NewEventBus()
	sub := bus.Subscribe(truck.EventTemperatureFault)
	defer sub.Close()
	source := &stubSensorSource{sample: truck.SensorSample{Temperature: 101, Timestamp: time.Now()}}
	task := NewFaultMonitoringTask(source, bus, 10*time.Millisecond, shared.NewLiveThresholds(100.0, 1.0))
	logger := common.LoggerFromContext(context.Background())

	// Act
	task.tick(context.Background(), logger)

	// Assert
	_, ok := sub.TryReceive()
	assert.True(t, ok)
}
