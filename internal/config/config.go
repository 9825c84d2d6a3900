package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete camview configuration. It is read once at startup.
type Config struct {
	InstanceID    string          `yaml:"instance_id"`
	DevicePath    string          `yaml:"device_path"`
	Source        string          `yaml:"source"` // gstreamer, synthetic
	StartTimeoutS float64         `yaml:"start_timeout_s"`
	Window        WindowConfig    `yaml:"window"`
	Synthetic     SyntheticConfig `yaml:"synthetic"`
	Logging       LoggingConfig   `yaml:"logging"`
	Metrics       MetricsConfig   `yaml:"metrics"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
}

// WindowConfig is the window size, which is also the capture resolution.
// Headless runs the UI queue without opening a window.
type WindowConfig struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Title    string `yaml:"title"`
	Headless bool   `yaml:"headless"`
}

// SyntheticConfig drives the test-pattern source.
type SyntheticConfig struct {
	FPS float64 `yaml:"fps"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// TelemetryConfig enables MQTT health reports when Broker is set.
type TelemetryConfig struct {
	Broker    string `yaml:"broker"`
	Topic     string `yaml:"topic"`
	QoS       byte   `yaml:"qos"`
	IntervalS int    `yaml:"interval_s"`
}

// StartTimeout returns StartTimeoutS as a duration.
func (c *Config) StartTimeout() time.Duration {
	return time.Duration(c.StartTimeoutS * float64(time.Second))
}

// TelemetryInterval returns the health report period.
func (c *Config) TelemetryInterval() time.Duration {
	return time.Duration(c.Telemetry.IntervalS) * time.Second
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	// Defaults alone always validate.
	_ = Validate(cfg)
	return cfg
}

// Load reads and parses a YAML configuration file. Missing keys take their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
