package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/osavioguedes/autonomous-vehicle/internal/application/common"
	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// LogSink persists append-only telemetry rows. CSV and SQLite adapters both
// implement it.
type LogSink interface {
	Write(entry truck.LogEntry) error
}

// DataCollectorTask samples shared state on a fixed period, folds in the
// description of one pending event (the oldest not yet reported, in arrival
// order; kinds are not ranked against each other), and persists the
// resulting log row while also retaining it in a bounded ring for live
// queries.
type DataCollectorTask struct {
	state            *truck.SharedState
	bus              *truck.EventBus
	sink             LogSink
	collectionPeriod time.Duration
	recent           *recentLogRing

	events *truck.Subscription
}

// NewDataCollectorTask creates a task collecting telemetry on the given period.
func NewDataCollectorTask(state *truck.SharedState, bus *truck.EventBus, sink LogSink, collectionPeriod time.Duration, retain int) *DataCollectorTask {
	return &DataCollectorTask{
		state:            state,
		bus:              bus,
		sink:             sink,
		collectionPeriod: collectionPeriod,
		recent:           newRecentLogRing(retain),
		events: bus.Subscribe(
			truck.EventModeChanged,
			truck.EventEmergencyStop,
			truck.EventEmergencyReset,
			truck.EventTargetReached,
		),
	}
}

// Run executes the collection loop until ctx is cancelled.
func (t *DataCollectorTask) Run(ctx context.Context) {
	logger := common.LoggerFromContext(ctx)
	logger.Log("INFO", "data collector task started", nil)
	defer t.events.Close()

	ticker := time.NewTicker(t.collectionPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.tick(logger)
		case <-ctx.Done():
			logger.Log("INFO", "data collector task stopped", nil)
			return
		}
	}
}

func (t *DataCollectorTask) tick(logger common.ContainerLogger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log("ERROR", fmt.Sprintf("data collector panic: %v", r), nil)
		}
	}()

	state := t.state.Snapshot()
	entry := truck.LogEntry{
		ID:               uuid.New(),
		Timestamp:        time.Now(),
		TruckID:          state.TruckID,
		Status:           state.Status.String(),
		Mode:             state.Mode.String(),
		PositionX:        state.PositionX,
		PositionY:        state.PositionY,
		Theta:            state.Theta,
		Velocity:         state.Velocity,
		EventDescription: "Status normal",
		Temperature:      state.Temperature,
		ElectricalFault:  state.ElectricalFault,
		HydraulicFault:   state.HydraulicFault,
	}

	entry.EventDescription = t.describeLatestEvent(entry.EventDescription)

	if err := t.sink.Write(entry); err != nil {
		logger.Log("ERROR", fmt.Sprintf("failed to write log entry: %v", err), nil)
	}
	t.recent.push(entry)
}

func (t *DataCollectorTask) describeLatestEvent(fallback string) string {
	ev, ok := t.events.TryReceive()
	if !ok {
		return fallback
	}

	switch ev.Kind {
	case truck.EventModeChanged:
		mode, _ := ev.Data["mode"].(string)
		if mode == "" {
			mode = "UNKNOWN"
		}
		return fmt.Sprintf("mode changed to %s", mode)
	case truck.EventEmergencyStop:
		return "EMERGENCY STOP ENGAGED"
	case truck.EventEmergencyReset:
		return "emergency reset"
	case truck.EventTargetReached:
		return "target reached"
	default:
		return fallback
	}
}

// RecentLogs returns up to n of the most recently collected entries.
func (t *DataCollectorTask) RecentLogs(n int) []truck.LogEntry {
	return t.recent.lastN(n)
}

// recentLogRing is a tiny fixed-size ring used only to serve "latest logs"
// queries; LogSink has the durable copy.
type recentLogRing struct {
	entries  []truck.LogEntry
	capacity int
}

func newRecentLogRing(capacity int) *recentLogRing {
	if capacity <= 0 {
		capacity = 10
	}
	return &recentLogRing{capacity: capacity}
}

func (r *recentLogRing) push(entry truck.LogEntry) {
	r.entries = append(r.entries, entry)
	if len(r.entries) > r.capacity {
		r.entries = r.entries[len(r.entries)-r.capacity:]
	}
}

func (r *recentLogRing) lastN(n int) []truck.LogEntry {
	if n <= 0 || n > len(r.entries) {
		n = len(r.entries)
	}
	return append([]truck.LogEntry(nil), r.entries[len(r.entries)-n:]...)
}
