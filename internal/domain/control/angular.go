package control

import (
	"math"
	"time"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
)

// AngularController drives heading to a target angle, wrapping the error
// into (-pi, pi] before handing it to the underlying PID so a truck never
// turns the long way around.
type AngularController struct {
	pid     *PIDController
	enabled bool
}

// NewAngularController creates a heading controller clamped to ±maxSteering.
func NewAngularController(kp, ki, kd, maxSteering float64, clock shared.Clock) *AngularController {
	return &AngularController{
		pid: NewPIDController(kp, ki, kd, -maxSteering, maxSteering, 50*time.Millisecond, clock),
	}
}

// Compute returns the steering command for the given current/target heading
// (radians). Returns 0 while disabled.
func (a *AngularController) Compute(currentAngle, targetAngle float64) float64 {
	if !a.enabled {
		return 0
	}

	errVal := normalizeAngle(targetAngle - currentAngle)
	return a.pid.Compute(0, errVal)
}

func normalizeAngle(angle float64) float64 {
	return math.Atan2(math.Sin(angle), math.Cos(angle))
}

// Enable arms the controller with bumpless transfer semantics.
func (a *AngularController) Enable(currentAngle float64) {
	a.enabled = true
	a.pid.Enable(0)
}

// Disable stops the controller.
func (a *AngularController) Disable() {
	a.enabled = false
	a.pid.Disable()
}

// IsEnabled reports whether the controller is active.
func (a *AngularController) IsEnabled() bool {
	return a.enabled
}

// Reset clears the underlying PID's integral/derivative history.
func (a *AngularController) Reset() {
	a.pid.Reset()
}
