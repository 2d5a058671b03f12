package truck

import "sync"

// SharedState is the single source of truth for a truck's VehicleState,
// safe for concurrent access by every task. Readers get a value copy;
// nothing outside this type ever holds a pointer into the live state.
type SharedState struct {
	mu    sync.Mutex
	state VehicleState
}

// NewSharedState creates a SharedState for the given truck, stopped and manual.
func NewSharedState(truckID int) *SharedState {
	return &SharedState{state: NewVehicleState(truckID)}
}

// Snapshot returns a value copy of the current state.
func (s *SharedState) Snapshot() VehicleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetPosition updates the kinematic fields.
func (s *SharedState) SetPosition(x, y, theta, velocity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PositionX = x
	s.state.PositionY = y
	s.state.Theta = theta
	s.state.Velocity = velocity
}

// SetActuators updates the actuator command fields.
func (s *SharedState) SetActuators(acceleration, steering float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AccelerationCmd = acceleration
	s.state.SteeringCmd = steering
}

// SetMode updates the operation mode.
func (s *SharedState) SetMode(mode OperationMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Mode = mode
}

// SetStatus updates the vehicle status.
func (s *SharedState) SetStatus(status VehicleStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = status
}

// SetSetpoints updates velocity and/or angular setpoints; a nil pointer
// leaves the corresponding field unchanged.
func (s *SharedState) SetSetpoints(velocitySetpoint, angularSetpoint *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if velocitySetpoint != nil {
		s.state.VelocitySetpoint = *velocitySetpoint
	}
	if angularSetpoint != nil {
		s.state.AngularSetpoint = *angularSetpoint
	}
}

// SetTarget updates the target waypoint; a nil pointer leaves the
// corresponding field unchanged.
func (s *SharedState) SetTarget(targetX, targetY *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if targetX != nil {
		s.state.TargetX = targetX
	}
	if targetY != nil {
		s.state.TargetY = targetY
	}
}

// FaultUpdate carries the optional fault fields SetFaults may update.
type FaultUpdate struct {
	Temperature *float64
	Electrical  *bool
	Hydraulic   *bool
	Emergency   *bool
}

// SetFaults updates any non-nil fault fields.
func (s *SharedState) SetFaults(u FaultUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Temperature != nil {
		s.state.Temperature = *u.Temperature
	}
	if u.Electrical != nil {
		s.state.ElectricalFault = *u.Electrical
	}
	if u.Hydraulic != nil {
		s.state.HydraulicFault = *u.Hydraulic
	}
	if u.Emergency != nil {
		s.state.EmergencyStop = *u.Emergency
	}
}

// IsAutomatic reports whether the truck is currently in automatic mode.
func (s *SharedState) IsAutomatic() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsAutomatic()
}

// IsManual reports whether the truck is currently in manual mode.
func (s *SharedState) IsManual() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsManual()
}

// HasFault reports whether any fault condition is currently active, judging
// over-temperature against tempThreshold.
func (s *SharedState) HasFault(tempThreshold float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.HasFault(tempThreshold)
}

// Position returns the current x, y, theta, velocity tuple.
func (s *SharedState) Position() (x, y, theta, velocity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PositionX, s.state.PositionY, s.state.Theta, s.state.Velocity
}

// Actuators returns the current acceleration, steering command pair.
func (s *SharedState) Actuators() (acceleration, steering float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AccelerationCmd, s.state.SteeringCmd
}

// Setpoints returns the current velocity, angular setpoint pair.
func (s *SharedState) Setpoints() (velocity, angular float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.VelocitySetpoint, s.state.AngularSetpoint
}
