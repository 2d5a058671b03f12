package transport

import (
	"encoding/json"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// Inbound message topics, mirroring the field-bus topic suffixes
// mine/truck/{id}/{topic}.
const (
	TopicCommand  = "command"
	TopicSetpoint = "setpoint"
	TopicRoute    = "route"
)

// Outbound message topics.
const (
	TopicState    = "state"
	TopicPosition = "position"
)

// envelope wraps every message exchanged over the socket with a topic so a
// single bidirectional connection can multiplex all five channels a field
// bus would otherwise split across distinct MQTT topics.
type envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// commandPayload is the wire shape of an inbound command message: a string
// naming the CommandKind and an optional value, matching the reference
// controller's accepted command names (both the short operator aliases like
// "AUTO"/"MANUAL" and the full CommandKind names).
type commandPayload struct {
	Type  string   `json:"type"`
	Value *float64 `json:"value,omitempty"`
}

// setpointPayload is the wire shape of an inbound remote velocity/angular
// setpoint override.
type setpointPayload struct {
	Velocity float64 `json:"velocity"`
	Angular  float64 `json:"angular"`
}

// waypointPayload is one waypoint in an inbound route message, accepting
// either an [x, y] pair or an {"x":.., "y":..} object.
type waypointPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UnmarshalJSON decodes a waypoint given as an [x, y] pair or an x/y object.
func (w *waypointPayload) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil && len(pair) == 2 {
		w.X, w.Y = pair[0], pair[1]
		return nil
	}
	type plain waypointPayload
	return json.Unmarshal(data, (*plain)(w))
}

// routePayload is the wire shape of an inbound route message.
type routePayload struct {
	Waypoints []waypointPayload `json:"waypoints"`
}

// statePayload is the wire shape of the outbound full-state telemetry
// message, published roughly once a second.
type statePayload struct {
	TruckID          int     `json:"truck_id"`
	Status           string  `json:"status"`
	Mode             string  `json:"mode"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	Theta            float64 `json:"theta"`
	Velocity         float64 `json:"velocity"`
	VelocitySetpoint float64 `json:"velocity_setpoint"`
	AngularSetpoint  float64 `json:"angular_setpoint"`
	AccelerationCmd  float64 `json:"acceleration_cmd"`
	SteeringCmd      float64 `json:"steering_cmd"`
	Temperature      float64 `json:"temperature"`
	ElectricalFault  bool    `json:"electrical_fault"`
	HydraulicFault   bool    `json:"hydraulic_fault"`
	EmergencyStop    bool    `json:"emergency_stop"`
}

func newStatePayload(state truck.VehicleState) statePayload {
	return statePayload{
		TruckID:          state.TruckID,
		Status:           state.Status.String(),
		Mode:             state.Mode.String(),
		X:                state.PositionX,
		Y:                state.PositionY,
		Theta:            state.Theta,
		Velocity:         state.Velocity,
		VelocitySetpoint: state.VelocitySetpoint,
		AngularSetpoint:  state.AngularSetpoint,
		AccelerationCmd:  state.AccelerationCmd,
		SteeringCmd:      state.SteeringCmd,
		Temperature:      state.Temperature,
		ElectricalFault:  state.ElectricalFault,
		HydraulicFault:   state.HydraulicFault,
		EmergencyStop:    state.EmergencyStop,
	}
}

// positionPayload is the wire shape of the outbound position-only message,
// published alongside statePayload for clients only tracking the pose.
type positionPayload struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// commandAliases maps both short operator aliases (AUTO/MANUAL/EMERGENCY/
// RESET) and full CommandKind names to their CommandKind, the same dual
// mapping the reference controller's MQTT command handler accepts.
var commandAliases = map[string]truck.CommandKind{
	"AUTO":               truck.CommandEnableAutomatic,
	"ENABLE_AUTOMATIC":   truck.CommandEnableAutomatic,
	"MANUAL":             truck.CommandDisableAutomatic,
	"DISABLE_AUTOMATIC":  truck.CommandDisableAutomatic,
	"ACCELERATE":         truck.CommandAccelerate,
	"BRAKE":              truck.CommandBrake,
	"STEER_LEFT":         truck.CommandSteerLeft,
	"STEER_RIGHT":        truck.CommandSteerRight,
	"MOVE_FORWARD":       truck.CommandMoveForward,
	"MOVE_BACKWARD":      truck.CommandMoveBackward,
	"TURN_LEFT":          truck.CommandTurnLeft,
	"TURN_RIGHT":         truck.CommandTurnRight,
	"STOP":               truck.CommandStop,
	"EMERGENCY":          truck.CommandEmergencyStop,
	"EMERGENCY_STOP":     truck.CommandEmergencyStop,
	"RESET":              truck.CommandResetEmergency,
	"RESET_EMERGENCY":    truck.CommandResetEmergency,
	"RESET_FAULT":        truck.CommandResetFault,
	"SHUTDOWN":           truck.CommandShutdown,
}
