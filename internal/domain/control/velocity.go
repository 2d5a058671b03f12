package control

import (
	"time"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
)

// VelocityController drives vehicle speed to a target setpoint.
type VelocityController struct {
	pid     *PIDController
	enabled bool
}

// NewVelocityController creates a speed controller clamped to ±maxAccel.
func NewVelocityController(kp, ki, kd, maxAccel float64, clock shared.Clock) *VelocityController {
	return &VelocityController{
		pid: NewPIDController(kp, ki, kd, -maxAccel, maxAccel, 50*time.Millisecond, clock),
	}
}

// Compute returns the acceleration command for the given current/target
// velocity. Returns 0 while disabled.
func (v *VelocityController) Compute(currentVelocity, targetVelocity float64) float64 {
	if !v.enabled {
		return 0
	}
	return v.pid.Compute(currentVelocity, targetVelocity)
}

// Enable arms the controller with bumpless transfer semantics.
func (v *VelocityController) Enable(currentVelocity float64) {
	v.enabled = true
	v.pid.Enable(currentVelocity)
}

// Disable stops the controller.
func (v *VelocityController) Disable() {
	v.enabled = false
	v.pid.Disable()
}

// IsEnabled reports whether the controller is active.
func (v *VelocityController) IsEnabled() bool {
	return v.enabled
}

// Reset clears the underlying PID's integral/derivative history.
func (v *VelocityController) Reset() {
	v.pid.Reset()
}
