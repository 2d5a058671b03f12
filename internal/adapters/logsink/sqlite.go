package logsink

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/osavioguedes/autonomous-vehicle/internal/domain/truck"
)

// logEntryModel is the GORM row shape for a truck telemetry log, persisted
// one-for-one with truck.LogEntry.
type logEntryModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	TruckID          int       `gorm:"column:truck_id;not null;index"`
	Timestamp        time.Time `gorm:"column:timestamp;not null;index"`
	Status           string    `gorm:"column:status;not null"`
	Mode             string    `gorm:"column:mode;not null"`
	PositionX        float64   `gorm:"column:position_x;not null"`
	PositionY        float64   `gorm:"column:position_y;not null"`
	Theta            float64   `gorm:"column:theta;not null"`
	Velocity         float64   `gorm:"column:velocity;not null"`
	EventDescription string    `gorm:"column:event_description;type:text"`
	Temperature      float64   `gorm:"column:temperature;not null"`
	ElectricalFault  bool      `gorm:"column:electrical_fault;not null;default:false"`
	HydraulicFault   bool      `gorm:"column:hydraulic_fault;not null;default:false"`
}

func (logEntryModel) TableName() string {
	return "truck_logs"
}

// SQLiteSink is the repository-style LogSink that replaces the teacher's
// entity-specific GORM repositories: one table, one model, one adapter,
// generalized to the single telemetry row this system persists.
type SQLiteSink struct {
	db *gorm.DB
}

// NewSQLiteSink opens path (or ":memory:") via the sqlite driver, silencing
// GORM's own query logging the same way the teacher's connection helper does,
// and auto-migrates the telemetry table.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite log store: %w", err)
	}

	if err := db.AutoMigrate(&logEntryModel{}); err != nil {
		return nil, fmt.Errorf("migrate truck_logs table: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

// Write implements tasks.LogSink.
func (s *SQLiteSink) Write(entry truck.LogEntry) error {
	model := logEntryModel{
		ID:               entry.ID.String(),
		TruckID:          entry.TruckID,
		Timestamp:        entry.Timestamp,
		Status:           entry.Status,
		Mode:             entry.Mode,
		PositionX:        entry.PositionX,
		PositionY:        entry.PositionY,
		Theta:            entry.Theta,
		Velocity:         entry.Velocity,
		EventDescription: entry.EventDescription,
		Temperature:      entry.Temperature,
		ElectricalFault:  entry.ElectricalFault,
		HydraulicFault:   entry.HydraulicFault,
	}
	return s.db.Create(&model).Error
}

// RecentLogs returns up to limit of the most recent rows for truckID, newest
// first, for operator tooling that wants history beyond the controller's
// in-memory ring.
func (s *SQLiteSink) RecentLogs(truckID, limit int) ([]truck.LogEntry, error) {
	var models []logEntryModel
	if err := s.db.Where("truck_id = ?", truckID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]truck.LogEntry, len(models))
	for i, m := range models {
		entries[i] = truck.LogEntry{
			TruckID:          m.TruckID,
			Timestamp:        m.Timestamp,
			Status:           m.Status,
			Mode:             m.Mode,
			PositionX:        m.PositionX,
			PositionY:        m.PositionY,
			Theta:            m.Theta,
			Velocity:         m.Velocity,
			EventDescription: m.EventDescription,
			Temperature:      m.Temperature,
			ElectricalFault:  m.ElectricalFault,
			HydraulicFault:   m.HydraulicFault,
		}
	}
	return entries, nil
}

// Close releases the underlying database connection.
func (s *SQLiteSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
