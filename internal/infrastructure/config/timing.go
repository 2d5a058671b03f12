package config

import "time"

// TimingConfig holds the period each periodic task in the control plane runs
// at, plus the simulation period used by a simulated sensor source.
type TimingConfig struct {
	// SensorProcessing is the period the filtering task polls the sensor
	// source and runs it through the moving-average filter.
	SensorProcessing time.Duration `mapstructure:"sensor_processing" validate:"required"`

	// FaultMonitoring is the period fault latches are evaluated.
	FaultMonitoring time.Duration `mapstructure:"fault_monitoring" validate:"required"`

	// CommandLogic is the period queued operator commands are drained.
	CommandLogic time.Duration `mapstructure:"command_logic" validate:"required"`

	// Control is the period the PID velocity/angular controllers tick.
	Control time.Duration `mapstructure:"control" validate:"required"`

	// RoutePlanning is the period waypoint progress is evaluated.
	RoutePlanning time.Duration `mapstructure:"route_planning" validate:"required"`

	// DataCollection is the period telemetry rows are persisted.
	DataCollection time.Duration `mapstructure:"data_collection" validate:"required"`

	// TaskStagger is the settling pause between launching each task at
	// startup.
	TaskStagger time.Duration `mapstructure:"task_stagger" validate:"required"`

	// Simulation is the period a simulated sensor source integrates its own
	// vehicle dynamics, independent of how often SensorProcessing reads it.
	Simulation time.Duration `mapstructure:"simulation" validate:"required"`
}
