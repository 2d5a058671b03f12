package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

const (
	writeWait      = 1 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketBroker is a Transport implementation serving one websocket
// endpoint per truck that any number of operator dashboards can connect to.
// Unlike the reference MQTT broker, a single full-duplex socket carries both
// directions: inbound command/setpoint/route messages and outbound state/
// position telemetry are multiplexed over the same connection by topic.
type WebSocketBroker struct {
	truckID int
	addr    string

	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}

	commandHandler  func(truck.Command)
	setpointHandler func(velocity, angular float64)
	routeHandler    func([]truck.Waypoint)

	publishLimiter *rate.Limiter

	server *http.Server
}

// NewWebSocketBroker builds a broker serving ws://addr/ws for the given truck.
func NewWebSocketBroker(truckID int, addr string) *WebSocketBroker {
	return &WebSocketBroker{
		truckID:        truckID,
		addr:           addr,
		conns:          make(map[*websocket.Conn]struct{}),
		publishLimiter: rate.NewLimiter(rate.Limit(1), 1), // at most 1 state publish/sec
	}
}

// OnCommand implements Transport.
func (b *WebSocketBroker) OnCommand(handler func(truck.Command)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commandHandler = handler
}

// OnSetpoint implements Transport.
func (b *WebSocketBroker) OnSetpoint(handler func(velocity, angular float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setpointHandler = handler
}

// OnRoute implements Transport.
func (b *WebSocketBroker) OnRoute(handler func([]truck.Waypoint)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routeHandler = handler
}

// Run starts the HTTP server and blocks until ctx is cancelled, at which
// point it shuts down gracefully.
func (b *WebSocketBroker) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.serveWebsocket)

	b.server = &http.Server{Addr: b.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return b.Close()
	case err := <-errCh:
		return err
	}
}

func (b *WebSocketBroker) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Printf("[transport] websocket upgrade failed: %v\n", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	b.mu.Lock()
	b.conns[conn] = struct{}{}
	b.mu.Unlock()

	defer b.removeConn(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		b.dispatch(data)
	}
}

func (b *WebSocketBroker) removeConn(conn *websocket.Conn) {
	b.mu.Lock()
	delete(b.conns, conn)
	b.mu.Unlock()
	_ = conn.Close()
}

func (b *WebSocketBroker) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		fmt.Printf("[transport] malformed message: %v\n", err)
		return
	}

	switch env.Topic {
	case TopicCommand:
		b.dispatchCommand(env.Payload)
	case TopicSetpoint:
		b.dispatchSetpoint(env.Payload)
	case TopicRoute:
		b.dispatchRoute(env.Payload)
	default:
		fmt.Printf("[transport] unknown topic: %s\n", env.Topic)
	}
}

func (b *WebSocketBroker) dispatchCommand(raw json.RawMessage) {
	var payload commandPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		fmt.Printf("[transport] malformed command payload: %v\n", err)
		return
	}

	kind, ok := commandAliases[payload.Type]
	if !ok {
		fmt.Printf("[transport] unknown command: %s\n", payload.Type)
		return
	}

	b.mu.RLock()
	handler := b.commandHandler
	b.mu.RUnlock()
	if handler == nil {
		return
	}
	handler(truck.Command{Kind: kind, Value: payload.Value, TruckID: b.truckID, Source: "transport"})
}

func (b *WebSocketBroker) dispatchSetpoint(raw json.RawMessage) {
	var payload setpointPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		fmt.Printf("[transport] malformed setpoint payload: %v\n", err)
		return
	}

	b.mu.RLock()
	handler := b.setpointHandler
	b.mu.RUnlock()
	if handler == nil {
		return
	}
	handler(payload.Velocity, payload.Angular)
}

func (b *WebSocketBroker) dispatchRoute(raw json.RawMessage) {
	var payload routePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		fmt.Printf("[transport] malformed route payload: %v\n", err)
		return
	}

	route := make([]truck.Waypoint, 0, len(payload.Waypoints))
	for _, wp := range payload.Waypoints {
		route = append(route, truck.Waypoint{X: wp.X, Y: wp.Y})
	}
	if len(route) == 0 {
		fmt.Println("[transport] route message had no valid waypoints")
		return
	}

	b.mu.RLock()
	handler := b.routeHandler
	b.mu.RUnlock()
	if handler == nil {
		return
	}
	handler(route)
}

// PublishState implements Transport, throttled to at most one publish per
// second so a burst of ticks never floods slow dashboard clients.
func (b *WebSocketBroker) PublishState(ctx context.Context, state truck.VehicleState) error {
	if !b.publishLimiter.Allow() {
		return nil
	}
	return b.broadcast(TopicState, newStatePayload(state))
}

// PublishPosition implements Transport. It is not subject to the state
// publish throttle, matching the reference controller publishing position
// unconditionally alongside the throttled full state.
func (b *WebSocketBroker) PublishPosition(ctx context.Context, x, y, theta float64) error {
	return b.broadcast(TopicPosition, positionPayload{X: x, Y: y, Theta: theta})
}

func (b *WebSocketBroker) broadcast(topic string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	env := envelope{Topic: topic, Payload: body}

	b.mu.RLock()
	targets := make([]*websocket.Conn, 0, len(b.conns))
	for conn := range b.conns {
		targets = append(targets, conn)
	}
	b.mu.RUnlock()

	for _, conn := range targets {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(env); err != nil {
			b.removeConn(conn)
		}
	}
	return nil
}

// Close implements Transport, shutting down the HTTP server and dropping
// every connected client.
func (b *WebSocketBroker) Close() error {
	b.mu.Lock()
	for conn := range b.conns {
		_ = conn.Close()
	}
	b.conns = make(map[*websocket.Conn]struct{})
	b.mu.Unlock()

	if b.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return b.server.Shutdown(ctx)
	}
	return nil
}
