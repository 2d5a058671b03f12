package control

import (
	"time"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/shared"
)

// PIDController is a clamped PID loop with anti-windup and bumpless transfer.
//
// Compute is gated by sample_time: calls arriving before sample_time has
// elapsed since the last accepted sample return the previously computed
// output unchanged, so a fast caller never sees a stale zero value.
type PIDController struct {
	kp, ki, kd         float64
	outputMin          float64
	outputMax          float64
	sampleTime         time.Duration
	clock              shared.Clock

	enabled    bool
	integral   float64
	lastError  float64
	lastOutput float64
	lastTime   time.Time
	hasLastTime bool
	setpoint   float64
}

// NewPIDController creates a PID controller clamped to [outputMin, outputMax].
// clock defaults to the real system clock if nil.
func NewPIDController(kp, ki, kd, outputMin, outputMax float64, sampleTime time.Duration, clock shared.Clock) *PIDController {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &PIDController{
		kp:         kp,
		ki:         ki,
		kd:         kd,
		outputMin:  outputMin,
		outputMax:  outputMax,
		sampleTime: sampleTime,
		clock:      clock,
	}
}

// Compute returns the control output for the given measured value against
// the given setpoint. Returns 0 while the controller is disabled.
func (p *PIDController) Compute(measuredValue, setpoint float64) float64 {
	if !p.enabled {
		return 0
	}

	now := p.clock.Now()

	if !p.hasLastTime {
		p.hasLastTime = true
		p.lastTime = now
		p.lastError = setpoint - measuredValue
		p.lastOutput = 0
		return 0
	}

	dt := now.Sub(p.lastTime).Seconds()
	if time.Duration(dt*float64(time.Second)) < p.sampleTime {
		return p.lastOutput
	}

	errVal := setpoint - measuredValue

	pTerm := p.kp * errVal

	p.integral += errVal * dt
	maxIntegral := 1e6
	if p.ki != 0 {
		maxIntegral = (p.outputMax - p.outputMin) / (2.0 * p.ki)
		if maxIntegral < 0 {
			maxIntegral = -maxIntegral
		}
	}
	p.integral = clamp(p.integral, -maxIntegral, maxIntegral)
	iTerm := p.ki * p.integral

	dTerm := 0.0
	if dt > 0 {
		dTerm = p.kd * (errVal - p.lastError) / dt
	}

	output := clamp(pTerm+iTerm+dTerm, p.outputMin, p.outputMax)

	p.lastError = errVal
	p.lastTime = now
	p.lastOutput = output
	p.setpoint = setpoint

	return output
}

// Enable arms the controller for bumpless transfer: the setpoint is primed
// to the current process value so the first Compute call produces no jump,
// and the integral/derivative history is cleared.
func (p *PIDController) Enable(currentValue float64) {
	p.enabled = true
	p.setpoint = currentValue
	p.integral = 0
	p.lastError = 0
	p.hasLastTime = false
}

// Disable stops the controller; Compute returns 0 until Enable is called again.
func (p *PIDController) Disable() {
	p.enabled = false
}

// IsEnabled reports whether the controller is currently active.
func (p *PIDController) IsEnabled() bool {
	return p.enabled
}

// Reset clears the integral and derivative history without changing the
// enabled state.
func (p *PIDController) Reset() {
	p.integral = 0
	p.lastError = 0
	p.hasLastTime = false
}

// SetGains updates the PID gains in place.
func (p *PIDController) SetGains(kp, ki, kd float64) {
	p.kp, p.ki, p.kd = kp, ki, kd
}

// Setpoint returns the most recently computed setpoint.
func (p *PIDController) Setpoint() float64 {
	return p.setpoint
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
