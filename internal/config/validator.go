package config

import (
	"fmt"
	"regexp"
)

// Defaults applied by Validate.
const (
	DefaultInstanceID    = "camview"
	DefaultDevicePath    = "/dev/video0"
	DefaultSource        = "gstreamer"
	DefaultWidth         = 640
	DefaultHeight        = 480
	DefaultTitle         = "camview"
	DefaultStartTimeoutS = 5
	DefaultSyntheticFPS  = 30
	DefaultIntervalS     = 10
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

var (
	validSources = map[string]bool{"gstreamer": true, "synthetic": true}
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"text": true, "json": true}
)

// Validate fills defaults and checks the configuration.
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		cfg.InstanceID = DefaultInstanceID
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	if !validSources[cfg.Source] {
		return fmt.Errorf("source must be gstreamer or synthetic, got %q", cfg.Source)
	}
	if cfg.DevicePath == "" {
		cfg.DevicePath = DefaultDevicePath
	}

	if cfg.Window.Width == 0 {
		cfg.Window.Width = DefaultWidth
	}
	if cfg.Window.Height == 0 {
		cfg.Window.Height = DefaultHeight
	}
	if cfg.Window.Width < 0 || cfg.Window.Height < 0 {
		return fmt.Errorf("window size must be > 0, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.Title == "" {
		cfg.Window.Title = DefaultTitle
	}

	if cfg.StartTimeoutS == 0 {
		cfg.StartTimeoutS = DefaultStartTimeoutS
	}
	if cfg.StartTimeoutS < 0 {
		return fmt.Errorf("start_timeout_s must be > 0")
	}

	if cfg.Synthetic.FPS == 0 {
		cfg.Synthetic.FPS = DefaultSyntheticFPS
	}
	if cfg.Synthetic.FPS < 0 {
		return fmt.Errorf("synthetic.fps must be >= 0")
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be text or json")
	}

	// Telemetry topics only matter when a broker is configured.
	if cfg.Telemetry.Topic == "" {
		cfg.Telemetry.Topic = fmt.Sprintf("camview/health/%s", cfg.InstanceID)
	}
	if cfg.Telemetry.IntervalS == 0 {
		cfg.Telemetry.IntervalS = DefaultIntervalS
	}
	if cfg.Telemetry.IntervalS < 0 {
		return fmt.Errorf("telemetry.interval_s must be > 0")
	}
	if cfg.Telemetry.QoS > 2 {
		return fmt.Errorf("telemetry.qos must be 0, 1 or 2")
	}

	return nil
}
