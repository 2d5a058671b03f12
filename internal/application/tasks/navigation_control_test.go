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

func TestNavigationControlTask_EnablesControllersOnModeEdge(t *testing.T) {
	// Arrange
	state := truck.NewSharedState(1)
	bus := truck.NewEventBus()
	clock := shared.NewMockClock(time.Time{})
	task := NewDefaultNavigationControlTask(state, bus, 50*time.Millisecond, clock)
	logger := common.LoggerFromContext(context.Background())
	state.SetMode(truck.ModeAutomaticRemote)

	// Act
	task.tick(logger)

	// Assert
	assert.True(t, task.velocityCtrl.IsEnabled())
	assert.True(t, task.angularCtrl.IsEnabled())
}

func TestNavigationControlTask_DisablesControllersOnFaultEvent(t *testing.T) {
	// Arrange
	state := truck.NewSharedState(1)
	bus := truck.NewEventBus()
	clock := shared.NewMockClock(time.Time{})
	task := NewDefaultNavigationControlTask(state, bus, 50*time.Millisecond, clock)
	logger := common.LoggerFromContext(context.Background())
	state.SetMode(truck.ModeAutomaticRemote)
	task.tick(logger) // enable controllers

	// Act
	bus.Emit(truck.EventEmergencyStop, nil, time.Now())
	task.tick(logger)

	// Assert
	assert.False(t, task.velocityCtrl.IsEnabled())
	snap := state.Snapshot()
	assert.Equal(t, 0.0, snap.AccelerationCmd)
}

func TestNavigationControlTask_ManualModeMirrorsCurrentAsSetpoint(t *testing.T) {
	// Arrange
	state := truck.NewSharedState(1)
	bus := truck.NewEventBus()
	clock := shared.NewMockClock(time.Time{})
	task := NewDefaultNavigationControlTask(state, bus, 50*time.Millisecond, clock)
	logger := common.LoggerFromContext(context.Background())
	state.SetPosition(0, 0, 1.5, 2.0)

	// Act
	task.tick(logger)

	// Assert
	snap := state.Snapshot()
	require.Equal(t, 2.0, snap.VelocitySetpoint)
	assert.Equal(t, 1.5, snap.AngularSetpoint)
}
