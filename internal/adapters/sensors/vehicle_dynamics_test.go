package sensors_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osavioguedes/autonomous-vehicle/internal/adapters/sensors"
)

func TestVehicleDynamics_FullThrottleApproachesMaxVelocity(t *testing.T) {
	// Arrange
	params := sensors.DefaultDynamicsParameters()
	dynamics := sensors.NewVehicleDynamics(params)

	// Act - integrate for many small steps at full throttle
	for i := 0; i < 500; i++ {
		dynamics.Update(1.0, 0, 0.01)
	}

	// Assert - velocity should have relaxed close to max
	_, _, _, velocity := dynamics.State()
	assert.InDelta(t, params.MaxVelocity, velocity, 0.1)
}

func TestVehicleDynamics_CommandsAreClampedToUnitRange(t *testing.T) {
	// Arrange
	dynamics := sensors.NewVehicleDynamics(sensors.DefaultDynamicsParameters())

	// Act
	dynamics.Update(5.0, -5.0, 0.01)
	_, _, _, velocityAtFullThrottle := dynamics.State()

	clamped := sensors.NewVehicleDynamics(sensors.DefaultDynamicsParameters())
	clamped.Update(1.0, -1.0, 0.01)
	_, _, _, velocityAtClampedThrottle := clamped.State()

	// Assert - an out-of-range command behaves exactly like its clamped value
	assert.Equal(t, velocityAtClampedThrottle, velocityAtFullThrottle)
}

func TestVehicleDynamics_ThetaWrapsToPi(t *testing.T) {
	// Arrange
	dynamics := sensors.NewVehicleDynamics(sensors.DefaultDynamicsParameters())
	dynamics.SetPosition(0, 0, 0)

	// Act - steer hard for long enough to wrap past +/- pi
	for i := 0; i < 2000; i++ {
		dynamics.Update(0, 1.0, 0.01)
	}

	// Assert
	_, _, theta, _ := dynamics.State()
	assert.LessOrEqual(t, theta, math.Pi)
	assert.GreaterOrEqual(t, theta, -math.Pi)
}

func TestVehicleDynamics_EmergencyStopZeroesVelocityNotPosition(t *testing.T) {
	// Arrange
	dynamics := sensors.NewVehicleDynamics(sensors.DefaultDynamicsParameters())
	dynamics.SetPosition(10, 20, 0.5)
	for i := 0; i < 100; i++ {
		dynamics.Update(1.0, 0, 0.01)
	}

	// Act
	dynamics.EmergencyStop()

	// Assert
	x, y, theta, velocity := dynamics.State()
	assert.Equal(t, 0.0, velocity)
	assert.NotEqual(t, 10.0, x)
	assert.NotEqual(t, 20.0, y)
	_ = theta
}
