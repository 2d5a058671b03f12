package config

import (
	"fmt"
	"time"
)

// SetDefaults sets default values for all configuration fields, mirroring
// the magnitudes spec.md calls out for each task/controller tunable.
func SetDefaults(cfg *Config) {
	// Timing defaults
	if cfg.Timing.SensorProcessing == 0 {
		cfg.Timing.SensorProcessing = 100 * time.Millisecond
	}
	if cfg.Timing.FaultMonitoring == 0 {
		cfg.Timing.FaultMonitoring = 500 * time.Millisecond
	}
	if cfg.Timing.CommandLogic == 0 {
		cfg.Timing.CommandLogic = 100 * time.Millisecond
	}
	if cfg.Timing.Control == 0 {
		cfg.Timing.Control = 50 * time.Millisecond
	}
	if cfg.Timing.RoutePlanning == 0 {
		cfg.Timing.RoutePlanning = 200 * time.Millisecond
	}
	if cfg.Timing.DataCollection == 0 {
		cfg.Timing.DataCollection = time.Second
	}
	if cfg.Timing.TaskStagger == 0 {
		cfg.Timing.TaskStagger = 100 * time.Millisecond
	}
	if cfg.Timing.Simulation == 0 {
		cfg.Timing.Simulation = 50 * time.Millisecond
	}

	// PID defaults
	if cfg.PID.VelocityKp == 0 {
		cfg.PID.VelocityKp = 0.5
	}
	if cfg.PID.VelocityKi == 0 {
		cfg.PID.VelocityKi = 0.1
	}
	if cfg.PID.VelocityKd == 0 {
		cfg.PID.VelocityKd = 0.05
	}
	if cfg.PID.AngularKp == 0 {
		cfg.PID.AngularKp = 1.0
	}
	if cfg.PID.AngularKi == 0 {
		cfg.PID.AngularKi = 0.05
	}
	if cfg.PID.AngularKd == 0 {
		cfg.PID.AngularKd = 0.2
	}
	if cfg.PID.MaxAcceleration == 0 {
		cfg.PID.MaxAcceleration = 1.0
	}
	if cfg.PID.MaxSteering == 0 {
		cfg.PID.MaxSteering = 1.0
	}

	// Filter defaults
	if cfg.Filter.Order == 0 {
		cfg.Filter.Order = 5
	}

	// Fault defaults
	if cfg.Fault.TempThreshold == 0 {
		cfg.Fault.TempThreshold = 100.0
	}

	// Route defaults
	if cfg.Route.WaypointThreshold == 0 {
		cfg.Route.WaypointThreshold = 1.0
	}
	if cfg.Route.MaxVelocity == 0 {
		cfg.Route.MaxVelocity = 5.0
	}

	// Buffer defaults
	if cfg.Buffer.Size == 0 {
		cfg.Buffer.Size = 100
	}

	// Queue defaults
	if cfg.Queue.CommandCapacity == 0 {
		cfg.Queue.CommandCapacity = 50
	}
	if cfg.Queue.RouteCapacity == 0 {
		cfg.Queue.RouteCapacity = 10
	}

	// Transport defaults
	if cfg.Transport.Address == "" {
		cfg.Transport.Address = "localhost:8765"
	}
	if cfg.Transport.TopicPrefix == "" {
		cfg.Transport.TopicPrefix = "mine/truck"
	}
	if cfg.Transport.PublishInterval == 0 {
		cfg.Transport.PublishInterval = time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Logging.Rotation.MaxSize == 0 {
		cfg.Logging.Rotation.MaxSize = 100 // MB
	}
	if cfg.Logging.Rotation.MaxBackups == 0 {
		cfg.Logging.Rotation.MaxBackups = 3
	}
	if cfg.Logging.Rotation.MaxAge == 0 {
		cfg.Logging.Rotation.MaxAge = 28 // days
	}

	// Daemon defaults
	if cfg.Daemon.TruckID == 0 {
		cfg.Daemon.TruckID = 1
	}
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = fmt.Sprintf("/tmp/minetruck-%d.pid", cfg.Daemon.TruckID)
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 2 * time.Second
	}
	if cfg.Daemon.LogDir == "" {
		cfg.Daemon.LogDir = "data/logs"
	}
	if cfg.Daemon.SQLitePath == "" {
		cfg.Daemon.SQLitePath = fmt.Sprintf("data/truck_%d.db", cfg.Daemon.TruckID)
	}
}
