package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration struct combining every sub-config a
// truck controller process needs.
type Config struct {
	Timing    TimingConfig    `mapstructure:"timing"`
	PID       PIDConfig       `mapstructure:"pid"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Fault     FaultConfig     `mapstructure:"fault"`
	Route     RouteConfig     `mapstructure:"route"`
	Buffer    BufferConfig    `mapstructure:"buffer"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Transport TransportConfig `mapstructure:"transport"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Daemon    DaemonConfig    `mapstructure:"daemon"`

	v *viper.Viper
}

// LoadConfig loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. Config file (config.yaml)
// 3. Defaults (lowest priority)
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/minetruck")
	}

	v.SetEnvPrefix("MT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("daemon.truck_id")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	SetDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.v = v
	return &cfg, nil
}

// LoadConfigOrDefault loads configuration or returns a default config on error.
func LoadConfigOrDefault(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		defaultCfg := &Config{}
		SetDefaults(defaultCfg)
		return defaultCfg
	}
	return cfg
}

// MustLoadConfig loads configuration and panics on error (for use in main.go).
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// WatchReload invokes onChange every time the config file changes on disk,
// passing the hot-reloadable Fault.TempThreshold and Route.WaypointThreshold
// read back off viper. The callback is where the values reach the tasks
// (Controller.UpdateThresholds stores them in the LiveThresholds every task
// re-reads each tick), so a reload takes effect on the task's next iteration
// without a restart.
func (c *Config) WatchReload(onChange func(tempThreshold, waypointThreshold float64)) {
	if c.v == nil {
		return
	}
	c.v.OnConfigChange(func(_ fsnotify.Event) {
		var reloaded Config
		if err := c.v.Unmarshal(&reloaded); err != nil {
			return
		}
		onChange(reloaded.Fault.TempThreshold, reloaded.Route.WaypointThreshold)
	})
	c.v.WatchConfig()
}
