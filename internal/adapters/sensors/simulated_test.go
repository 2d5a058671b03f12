package sensors_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osavioguedes/autonomous-vehicle/internal/adapters/sensors"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
)

type stubActuatorReader struct {
	acceleration, steering float64
}

func (s *stubActuatorReader) Actuators() (float64, float64) {
	return s.acceleration, s.steering
}

func newTestSimulator(actuators *stubActuatorReader) *sensors.SimulatedSensorSource {
	return sensors.NewSimulatedSensorSource(
		actuators,
		sensors.DefaultDynamicsParameters(),
		sensors.RandomFaultProbabilities{Electrical: 0, Hydraulic: 0},
		time.Hour,
		5*time.Millisecond,
		rand.New(rand.NewSource(1)),
		shared.NewMockClock(time.Time{}),
	)
}

func TestSimulatedSensorSource_ReadReturnsInitialPoseBeforeAnyTick(t *testing.T) {
	// Arrange
	sim := newTestSimulator(&stubActuatorReader{})

	// Act
	sample, err := sim.Read(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 50.0, sample.PositionX)
	assert.Equal(t, 37.5, sample.PositionY)
}

func TestSimulatedSensorSource_RunIntegratesDynamicsFromActuators(t *testing.T) {
	// Arrange
	actuators := &stubActuatorReader{acceleration: 1.0, steering: 0}
	sim := newTestSimulator(actuators)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Act
	go sim.Run(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	sample, err := sim.Read(context.Background())

	// Assert - accelerating forward should have moved position away from start
	require.NoError(t, err)
	assert.NotEqual(t, 50.0, sample.PositionX)
	assert.Greater(t, sample.Velocity, 0.0)
}

func TestSimulatedSensorSource_EmergencyStopZeroesVelocity(t *testing.T) {
	// Arrange
	actuators := &stubActuatorReader{acceleration: 1.0, steering: 0}
	sim := newTestSimulator(actuators)
	ctx, cancel := context.WithCancel(context.Background())

	// Act
	go sim.Run(ctx)
	time.Sleep(30 * time.Millisecond)
	sim.EmergencyStop()
	cancel()
	time.Sleep(10 * time.Millisecond)
	sample, err := sim.Read(context.Background())

	// Assert
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sample.Velocity, 0.3)
}

func TestSimulatedSensorSource_ClearFaultsInvokesUnderlyingGenerator(t *testing.T) {
	// Arrange
	sim := newTestSimulator(&stubActuatorReader{})

	// Act
	err := sim.ClearFaults(context.Background())

	// Assert - no active faults to clear, but the call must not error
	assert.NoError(t, err)
}

func TestSimulatedSensorSource_SetPositionTeleportsVehicle(t *testing.T) {
	// Arrange
	sim := newTestSimulator(&stubActuatorReader{})

	// Act
	sim.SetPosition(5, 6, 0)
	ctx, cancel := context.WithCancel(context.Background())
	go sim.Run(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()
	sample, err := sim.Read(context.Background())

	// Assert
	require.NoError(t, err)
	assert.InDelta(t, 5.0, sample.PositionX, 0.5)
	assert.InDelta(t, 6.0, sample.PositionY, 0.5)
}
