package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

const csvHeader = "timestamp,truck_id,status,mode,position_x,position_y,theta,velocity,temperature,electrical_fault,hydraulic_fault,event_description\n"

// CSVSink appends telemetry rows to a per-truck CSV file, one row per
// DataCollector tick, writing the header exactly once when the file doesn't
// already exist.
type CSVSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewCSVSink opens (or creates) dir/truck_<id>.csv for appending, writing the
// CSV header first if the file is new.
func NewCSVSink(dir string, truckID int) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("truck_%d.csv", truckID))
	_, statErr := os.Stat(path)
	needsHeader := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	if needsHeader {
		if _, err := file.WriteString(csvHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
	}

	return &CSVSink{file: file}, nil
}

// Write implements tasks.LogSink.
func (s *CSVSink) Write(entry truck.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := fmt.Sprintf(
		"%.3f,%d,%s,%s,%.2f,%.2f,%.4f,%.2f,%.1f,%d,%d,%q\n",
		float64(entry.Timestamp.UnixNano())/1e9,
		entry.TruckID,
		entry.Status,
		entry.Mode,
		entry.PositionX,
		entry.PositionY,
		entry.Theta,
		entry.Velocity,
		entry.Temperature,
		boolToInt(entry.ElectricalFault),
		boolToInt(entry.HydraulicFault),
		entry.EventDescription,
	)

	_, err := s.file.WriteString(line)
	return err
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
