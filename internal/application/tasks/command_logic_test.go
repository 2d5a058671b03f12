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

type stubFaultClearer struct {
	called int
}

func (s *stubFaultClearer) ClearFaults(ctx context.Context) error {
	s.called++
	return nil
}

func newCommandLogicTaskForTest() (*CommandLogicTask, *truck.SharedState, *truck.CommandQueue) {
	buffer := truck.NewCircularBuffer(5)
	state := truck.NewSharedState(1)
	bus := truck.NewEventBus()
	queue := truck.NewCommandQueue(10)
	task := NewCommandLogicTask(buffer, state, bus, queue, 10*time.Millisecond, shared.NewMockClock(time.Time{}), nil, nil)
	return task, state, queue
}

func TestCommandLogicTask_EnableAutomaticZerosSetpointsAndActuators(t *testing.T) {
	// Arrange
	task, state, queue := newCommandLogicTaskForTest()
	logger := common.LoggerFromContext(context.Background())
	queue.TryPut(truck.Command{Kind: truck.CommandEnableAutomatic})

	// Act
	task.tick(context.Background(), logger)

	// Assert
	snap := state.Snapshot()
	assert.True(t, snap.IsAutomatic())
	assert.Equal(t, 0.0, snap.AccelerationCmd)
	assert.Equal(t, 0.0, snap.VelocitySetpoint)
}

func TestCommandLogicTask_ManualAccelerateIgnoredInAutomaticMode(t *testing.T) {
	// Arrange
	task, state, queue := newCommandLogicTaskForTest()
	logger := common.LoggerFromContext(context.Background())
	state.SetMode(truck.ModeAutomaticRemote)
	value := 0.7
	queue.TryPut(truck.Command{Kind: truck.CommandAccelerate, Value: &value})

	// Act
	task.tick(context.Background(), logger)

	// Assert - manual actuator commands have no effect while automatic
	snap := state.Snapshot()
	assert.Equal(t, 0.0, snap.AccelerationCmd)
}

func TestCommandLogicTask_SteerLeftAndTurnLeftShareBehavior(t *testing.T) {
	// Arrange
	task1, state1, queue1 := newCommandLogicTaskForTest()
	task2, state2, queue2 := newCommandLogicTaskForTest()
	logger := common.LoggerFromContext(context.Background())
	queue1.TryPut(truck.Command{Kind: truck.CommandSteerLeft})
	queue2.TryPut(truck.Command{Kind: truck.CommandTurnLeft})

	// Act
	task1.tick(context.Background(), logger)
	task2.tick(context.Background(), logger)

	// Assert
	assert.Equal(t, state1.Snapshot().SteeringCmd, state2.Snapshot().SteeringCmd)
}

func TestCommandLogicTask_EmergencyStopSetsEmergencyStatus(t *testing.T) {
	// Arrange
	task, state, queue := newCommandLogicTaskForTest()
	logger := common.LoggerFromContext(context.Background())
	queue.TryPut(truck.Command{Kind: truck.CommandEmergencyStop})

	// Act
	task.tick(context.Background(), logger)

	// Assert
	snap := state.Snapshot()
	require.True(t, snap.EmergencyStop)
	assert.Equal(t, truck.StatusEmergency, snap.Status)
}

func TestCommandLogicTask_DerivesRunningStatusFromVelocity(t *testing.T) {
	// Arrange
	buffer := truck.NewCircularBuffer(5)
	state := truck.NewSharedState(1)
	bus := truck.NewEventBus()
	queue := truck.NewCommandQueue(10)
	task := NewCommandLogicTask(buffer, state, bus, queue, 10*time.Millisecond, shared.NewMockClock(time.Time{}), nil, nil)
	logger := common.LoggerFromContext(context.Background())
	buffer.Write(truck.FilteredSample{Velocity: 2.0})

	// Act
	task.tick(context.Background(), logger)

	// Assert
	assert.Equal(t, truck.StatusRunning, state.Snapshot().Status)
}

func TestCommandLogicTask_ResetFaultClearsStateAndCallsFaultClearer(t *testing.T) {
	// Arrange
	buffer := truck.NewCircularBuffer(5)
	state := truck.NewSharedState(1)
	bus := truck.NewEventBus()
	queue := truck.NewCommandQueue(10)
	clearer := &stubFaultClearer{}
	task := NewCommandLogicTask(buffer, state, bus, queue, 10*time.Millisecond, shared.NewMockClock(time.Time{}), clearer, nil)
	logger := common.LoggerFromContext(context.Background())
	electrical, hydraulic := true, true
	state.SetFaults(truck.FaultUpdate{Electrical: &electrical, Hydraulic: &hydraulic})
	queue.TryPut(truck.Command{Kind: truck.CommandResetFault})

	// Act
	task.tick(context.Background(), logger)

	// Assert
	snap := state.Snapshot()
	assert.False(t, snap.ElectricalFault)
	assert.False(t, snap.HydraulicFault)
	assert.Equal(t, 1, clearer.called)
}
