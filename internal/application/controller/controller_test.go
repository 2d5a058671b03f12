package controller_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osavioguedes/autonomous-vehicle/internal/application/controller"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

type stubSensorSource struct{}

func (stubSensorSource) Read(ctx context.Context) (truck.SensorSample, error) {
	return truck.SensorSample{Timestamp: time.Now()}, nil
}

type stubLogSink struct{}

func (stubLogSink) Write(entry truck.LogEntry) error { return nil }

func fastTimings() controller.Timings {
	return controller.Timings{
		SensorProcessing: 5 * time.Millisecond,
		FaultMonitoring:  5 * time.Millisecond,
		CommandLogic:     5 * time.Millisecond,
		Control:          5 * time.Millisecond,
		RoutePlanning:    5 * time.Millisecond,
		DataCollection:   5 * time.Millisecond,
		TaskStagger:      time.Millisecond,
	}
}

func TestController_StartThenStopIsClean(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Time{})
	ctrl := controller.New(1, stubSensorSource{}, nil, stubLogSink{}, fastTimings(), controller.DefaultThresholds(), controller.DefaultGains(), clock, nil)

	// Act
	err := ctrl.Start(context.Background())
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	stopErr := ctrl.Stop()

	// Assert
	require.NoError(t, stopErr)
	assert.False(t, ctrl.IsRunning())
}

func TestController_DoubleStopIsIdempotent(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Time{})
	ctrl := controller.New(2, stubSensorSource{}, nil, stubLogSink{}, fastTimings(), controller.DefaultThresholds(), controller.DefaultGains(), clock, nil)
	require.NoError(t, ctrl.Start(context.Background()))

	// Act
	first := ctrl.Stop()
	second := ctrl.Stop()

	// Assert
	assert.NoError(t, first)
	assert.NoError(t, second)
}

func TestController_EnqueueCommandAndRoute(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Time{})
	ctrl := controller.New(3, stubSensorSource{}, nil, stubLogSink{}, fastTimings(), controller.DefaultThresholds(), controller.DefaultGains(), clock, nil)
	require.NoError(t, ctrl.Start(context.Background()))
	defer ctrl.Stop()

	// Act
	okCmd := ctrl.EnqueueCommand(truck.Command{Kind: truck.CommandEnableAutomatic})
	okRoute := ctrl.EnqueueRoute([]truck.Waypoint{{X: 1, Y: 1}})

	// Assert
	assert.True(t, okCmd)
	assert.True(t, okRoute)
}

func TestController_ShutdownEventStopsController(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Time{})
	ctrl := controller.New(4, stubSensorSource{}, nil, stubLogSink{}, fastTimings(), controller.DefaultThresholds(), controller.DefaultGains(), clock, nil)
	require.NoError(t, ctrl.Start(context.Background()))

	// Act
	ctrl.EventBus().Emit(truck.EventShutdown, nil, time.Now())
	time.Sleep(50 * time.Millisecond)

	// Assert
	assert.False(t, ctrl.IsRunning())
}
