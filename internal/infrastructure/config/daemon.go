package config

import "time"

// DaemonConfig holds truck-controller process configuration.
type DaemonConfig struct {
	// TruckID identifies which truck this process controls; also used to
	// key the PID file path and SQLite path when those are unset.
	TruckID int `mapstructure:"truck_id" validate:"min=1"`

	// PIDFile is the lock file location, keyed per truck.
	PIDFile string `mapstructure:"pid_file"`

	// Graceful shutdown timeout before giving up on a wedged task.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`

	// LogDir is where the CSV log sink writes truck_<id>.csv.
	LogDir string `mapstructure:"log_dir"`

	// SQLitePath is the telemetry database file (or ":memory:").
	SQLitePath string `mapstructure:"sqlite_path"`

	// RealSensorBus, when true, would wire a real field-bus sensor adapter
	// instead of the simulator. No such adapter exists yet, so leaving this
	// at its false default is the only supported configuration.
	RealSensorBus bool `mapstructure:"real_sensor_bus"`
}
