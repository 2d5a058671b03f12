package truck

import (
	"time"

	"github.com/google/uuid"
)

// OperationMode selects who is allowed to set actuator commands: a local
// operator (manual) or the automatic control loop (remote/automatic).
type OperationMode int

const (
	ModeManualLocal OperationMode = iota
	ModeAutomaticRemote
)

func (m OperationMode) String() string {
	switch m {
	case ModeManualLocal:
		return "MANUAL_LOCAL"
	case ModeAutomaticRemote:
		return "AUTOMATIC_REMOTE"
	default:
		return "UNKNOWN"
	}
}

// VehicleStatus summarizes the truck's current operating condition.
type VehicleStatus int

const (
	StatusStopped VehicleStatus = iota
	StatusRunning
	StatusFault
	StatusEmergency
)

func (s VehicleStatus) String() string {
	switch s {
	case StatusStopped:
		return "STOPPED"
	case StatusRunning:
		return "RUNNING"
	case StatusFault:
		return "FAULT"
	case StatusEmergency:
		return "EMERGENCY"
	default:
		return "UNKNOWN"
	}
}

// VehicleState is the complete snapshot of a truck's kinematic, control and
// fault state. Copies of VehicleState are plain values; there is no shared
// mutable state behind it.
type VehicleState struct {
	TruckID int

	PositionX float64
	PositionY float64
	Theta     float64
	Velocity  float64

	Mode   OperationMode
	Status VehicleStatus

	AccelerationCmd float64
	SteeringCmd     float64

	VelocitySetpoint float64
	AngularSetpoint  float64
	TargetX          *float64
	TargetY          *float64

	Temperature      float64
	ElectricalFault  bool
	HydraulicFault   bool
	EmergencyStop    bool
}

// HasFault reports whether any fault condition (electrical, hydraulic,
// over-temperature against tempThreshold, or emergency stop) is currently
// active.
func (v VehicleState) HasFault(tempThreshold float64) bool {
	return v.ElectricalFault || v.HydraulicFault || v.Temperature > tempThreshold || v.EmergencyStop
}

// IsAutomatic reports whether the truck is in automatic/remote mode.
func (v VehicleState) IsAutomatic() bool {
	return v.Mode == ModeAutomaticRemote
}

// IsManual reports whether the truck is in manual/local mode.
func (v VehicleState) IsManual() bool {
	return v.Mode == ModeManualLocal
}

// NewVehicleState returns a zeroed state for the given truck, stopped and manual.
func NewVehicleState(truckID int) VehicleState {
	return VehicleState{TruckID: truckID, Mode: ModeManualLocal, Status: StatusStopped}
}

// CommandKind enumerates every operator/remote command the controller accepts.
// STEER_LEFT/TURN_LEFT and STEER_RIGHT/TURN_RIGHT are intentionally distinct
// constants routed to the same handler: two historical spellings of the same
// manual steering command.
type CommandKind int

const (
	CommandEnableAutomatic CommandKind = iota
	CommandDisableAutomatic

	CommandAccelerate
	CommandBrake
	CommandSteerLeft
	CommandSteerRight
	CommandMoveForward
	CommandMoveBackward
	CommandTurnLeft
	CommandTurnRight
	CommandStop

	CommandEmergencyStop
	CommandResetEmergency
	CommandResetFault

	CommandShutdown
)

func (c CommandKind) String() string {
	names := map[CommandKind]string{
		CommandEnableAutomatic:  "ENABLE_AUTOMATIC",
		CommandDisableAutomatic: "DISABLE_AUTOMATIC",
		CommandAccelerate:       "ACCELERATE",
		CommandBrake:            "BRAKE",
		CommandSteerLeft:        "STEER_LEFT",
		CommandSteerRight:       "STEER_RIGHT",
		CommandMoveForward:      "MOVE_FORWARD",
		CommandMoveBackward:     "MOVE_BACKWARD",
		CommandTurnLeft:         "TURN_LEFT",
		CommandTurnRight:        "TURN_RIGHT",
		CommandStop:             "STOP",
		CommandEmergencyStop:    "EMERGENCY_STOP",
		CommandResetEmergency:   "RESET_EMERGENCY",
		CommandResetFault:       "RESET_FAULT",
		CommandShutdown:         "SHUTDOWN",
	}
	if name, ok := names[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// Command is a single operator/remote instruction queued for CommandLogic.
type Command struct {
	Kind      CommandKind
	Value     *float64
	TruckID   int
	Timestamp time.Time
	Source    string
}

// EventKind enumerates the event-bus message kinds published by tasks.
type EventKind int

const (
	EventTemperatureFault EventKind = iota
	EventElectricalFault
	EventHydraulicFault
	EventFaultCleared

	EventModeChanged
	EventEmergencyStop
	EventEmergencyReset
	EventTargetReached

	EventShutdown
	EventNewRoute
)

// Event is a single message carried by the EventBus.
type Event struct {
	ID        uuid.UUID
	Kind      EventKind
	Data      map[string]interface{}
	Timestamp time.Time
}

// SensorSample is one raw reading from the sensor source.
type SensorSample struct {
	PositionX float64
	PositionY float64
	Theta     float64
	Velocity  float64

	Temperature     float64
	ElectricalFault bool
	HydraulicFault  bool

	Timestamp time.Time
}

// FilteredSample is a SensorSample after moving-average filtering.
type FilteredSample struct {
	PositionX float64
	PositionY float64
	Theta     float64
	Velocity  float64
	Temperature float64

	ElectricalFault bool
	HydraulicFault  bool

	Timestamp time.Time
}

// ActuatorCommand is the pair of actuator outputs sent to the vehicle,
// clamped to [-1, 1] on construction.
type ActuatorCommand struct {
	Acceleration float64
	Steering     float64
	Timestamp    time.Time
}

// NewActuatorCommand builds a command, clamping both axes to [-1, 1].
func NewActuatorCommand(acceleration, steering float64, timestamp time.Time) ActuatorCommand {
	return ActuatorCommand{
		Acceleration: clampUnit(acceleration),
		Steering:     clampUnit(steering),
		Timestamp:    timestamp,
	}
}

func clampUnit(v float64) float64 {
	if v < -1.0 {
		return -1.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

// LogEntry is a single append-only telemetry row written by DataCollector.
type LogEntry struct {
	ID        uuid.UUID
	Timestamp time.Time
	TruckID   int
	Status    string
	Mode      string
	PositionX float64
	PositionY float64
	Theta     float64
	Velocity  float64

	EventDescription string

	Temperature     float64
	ElectricalFault bool
	HydraulicFault  bool
}
