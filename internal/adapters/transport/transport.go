package transport

import (
	"context"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// Transport abstracts the pub/sub bus connecting a truck's controller to
// remote operators and dashboards: commands, velocity setpoints and routes
// flow in; state and position telemetry flow out. A field-bus MQTT adapter
// or this package's WebSocketBroker can both satisfy it.
type Transport interface {
	// OnCommand registers the handler invoked for every inbound command
	// message. Only the most recently registered handler is kept.
	OnCommand(handler func(truck.Command))

	// OnSetpoint registers the handler invoked for every inbound remote
	// velocity/angular setpoint override.
	OnSetpoint(handler func(velocity, angular float64))

	// OnRoute registers the handler invoked for every inbound route.
	OnRoute(handler func(route []truck.Waypoint))

	// PublishState broadcasts a full state snapshot to every connected client.
	PublishState(ctx context.Context, state truck.VehicleState) error

	// PublishPosition broadcasts just the pose, for clients that only track it.
	PublishPosition(ctx context.Context, x, y, theta float64) error

	// Close shuts down the transport and disconnects every client.
	Close() error
}
