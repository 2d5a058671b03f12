package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/osavioguedes/autonomous-vehicle/internal/infrastructure/config"
)

// levelRank orders severities for filtering. Task code logs with uppercase
// level names ("INFO", "ERROR", ...); Log normalizes before the lookup.
var levelRank = map[string]int{
	"DEBUG": 0,
	"INFO":  1,
	"WARN":  2,
	"ERROR": 3,
}

// StructuredLogger is a concrete common.ContainerLogger writing one line per
// call to stdout, stderr or a file, as JSON or plain text, per LoggingConfig.
// It carries no persistence of its own — it only formats and writes, the way
// the teacher's container runner Log method prints directly rather than
// going through a logging framework.
type StructuredLogger struct {
	mu       sync.Mutex
	out      io.Writer
	truckID  int
	format   string
	minLevel int
}

// NewStructuredLogger opens the configured output (stdout/stderr/file) and
// returns a logger gated at cfg.Level.
func NewStructuredLogger(cfg config.LoggingConfig, truckID int) (*StructuredLogger, error) {
	var out io.Writer
	switch cfg.Output {
	case "stderr":
		out = os.Stderr
	case "file":
		f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	default:
		out = os.Stdout
	}

	rank, ok := levelRank[strings.ToUpper(cfg.Level)]
	if !ok {
		rank = levelRank["INFO"]
	}

	return &StructuredLogger{
		out:      out,
		truckID:  truckID,
		format:   cfg.Format,
		minLevel: rank,
	}, nil
}

// Log implements common.ContainerLogger.
func (l *StructuredLogger) Log(level, message string, metadata map[string]interface{}) {
	if rank, ok := levelRank[strings.ToUpper(level)]; ok && rank < l.minLevel {
		return
	}

	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.format == "text" {
		fmt.Fprintf(l.out, "[%s] [truck-%d] %s: %s\n", now.Format(time.RFC3339), l.truckID, level, message)
		return
	}

	line := map[string]interface{}{
		"timestamp": now.Format(time.RFC3339),
		"truck_id":  l.truckID,
		"level":     level,
		"message":   message,
	}
	if len(metadata) > 0 {
		line["metadata"] = metadata
	}

	body, err := json.Marshal(line)
	if err != nil {
		fmt.Fprintf(l.out, "[%s] [truck-%d] ERROR: failed to marshal log line: %v\n", now.Format(time.RFC3339), l.truckID, err)
		return
	}
	l.out.Write(append(body, '\n'))
}

// Close releases the underlying writer if it's a file.
func (l *StructuredLogger) Close() error {
	if closer, ok := l.out.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
