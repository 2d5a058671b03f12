package sensors

import (
	"math"
	"sync"
)

// DynamicsParameters bounds and time-constants a VehicleDynamics model is
// built with. TauVelocity/TauAngular are first-order lag time constants:
// larger means the vehicle takes longer to reach a commanded speed/turn rate.
type DynamicsParameters struct {
	MaxVelocity        float64
	MaxAngularVelocity float64
	TauVelocity        float64
	TauAngular         float64
}

// DefaultDynamicsParameters mirrors the reference vehicle's tuning.
func DefaultDynamicsParameters() DynamicsParameters {
	return DynamicsParameters{
		MaxVelocity:        10.0,
		MaxAngularVelocity: 1.0,
		TauVelocity:        0.5,
		TauAngular:         0.3,
	}
}

// VehicleDynamics integrates a simple first-order-lag kinematic model: an
// acceleration/steering command in [-1, 1] relaxes toward a target
// velocity/angular velocity, which is then Euler-integrated into position
// and heading. It stands in for the physical truck's drivetrain and steering.
type VehicleDynamics struct {
	mu sync.Mutex

	params DynamicsParameters

	x, y, theta      float64
	velocity         float64
	angularVelocity  float64
	accelCmd         float64
	steerCmd         float64
}

// NewVehicleDynamics builds a dynamics model at rest at the origin.
func NewVehicleDynamics(params DynamicsParameters) *VehicleDynamics {
	return &VehicleDynamics{params: params}
}

// SetPosition teleports the model to a given pose, zeroing velocity.
func (d *VehicleDynamics) SetPosition(x, y, theta float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.x, d.y, d.theta = x, y, theta
	d.velocity = 0
	d.angularVelocity = 0
}

// Update advances the model by dt given the latest actuator command, both
// components clamped to [-1, 1] before use.
func (d *VehicleDynamics) Update(accelCmd, steerCmd float64, dt float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.accelCmd = clamp(-1, accelCmd, 1)
	d.steerCmd = clamp(-1, steerCmd, 1)

	targetVelocity := d.accelCmd * d.params.MaxVelocity
	targetAngular := d.steerCmd * d.params.MaxAngularVelocity

	d.velocity += (targetVelocity - d.velocity) * dt / d.params.TauVelocity
	d.angularVelocity += (targetAngular - d.angularVelocity) * dt / d.params.TauAngular

	d.x += d.velocity * math.Cos(d.theta) * dt
	d.y += d.velocity * math.Sin(d.theta) * dt
	d.theta += d.angularVelocity * dt
	d.theta = math.Atan2(math.Sin(d.theta), math.Cos(d.theta))
}

// State returns the current pose and velocity.
func (d *VehicleDynamics) State() (x, y, theta, velocity float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.x, d.y, d.theta, d.velocity
}

// Reset returns the model to rest at the origin.
func (d *VehicleDynamics) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.x, d.y, d.theta = 0, 0, 0
	d.velocity, d.angularVelocity = 0, 0
	d.accelCmd, d.steerCmd = 0, 0
}

// EmergencyStop zeroes velocity and angular velocity in place, leaving
// position and heading untouched.
func (d *VehicleDynamics) EmergencyStop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.velocity = 0
	d.angularVelocity = 0
}

func clamp(min, v, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
