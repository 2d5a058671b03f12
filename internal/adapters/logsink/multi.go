package logsink

import (
	"fmt"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// MultiSink fans a single DataCollector write out to every underlying sink,
// the way EventBus fans one Emit out to every subscriber. Used to persist
// telemetry to CSV and SQLite at once without DataCollectorTask knowing
// about either concrete format.
type MultiSink struct {
	sinks []interface {
		Write(entry truck.LogEntry) error
	}
}

// NewMultiSink wraps any number of LogSink-shaped writers into one.
func NewMultiSink(sinks ...interface {
	Write(entry truck.LogEntry) error
}) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Write implements tasks.LogSink, writing to every underlying sink and
// returning the first error encountered after attempting all of them.
func (m *MultiSink) Write(entry truck.LogEntry) error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Write(entry); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("sink write failed: %w", err)
		}
	}
	return firstErr
}

// Close closes every underlying sink that implements io.Closer-like Close,
// returning the first error encountered after attempting all of them.
func (m *MultiSink) Close() error {
	var firstErr error
	for _, sink := range m.sinks {
		closer, ok := sink.(interface{ Close() error })
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
