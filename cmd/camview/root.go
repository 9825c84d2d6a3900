package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/e7canasta/camview/internal/config"
)

type flags struct {
	configFile  string
	device      string
	width       int
	height      int
	source      string
	debug       bool
	logFormat   string
	metricsAddr string
	mqttBroker  string
	headless    bool
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "camview",
		Short: "Show a live V4L2 camera feed in a window",
		Long: `Captures frames from a Video4Linux2 device through GStreamer, converts them to
RGB at the window size and renders them in a desktop window until it is closed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "camview:", err)
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configFile, "config", "c", "", "path to YAML configuration file")
	fl.StringVarP(&f.device, "device", "d", config.DefaultDevicePath, "V4L2 capture device")
	fl.IntVar(&f.width, "width", config.DefaultWidth, "window and capture width")
	fl.IntVar(&f.height, "height", config.DefaultHeight, "window and capture height")
	fl.StringVar(&f.source, "source", config.DefaultSource, "capture source: gstreamer or synthetic")
	fl.BoolVar(&f.debug, "debug", false, "enable debug logging")
	fl.StringVar(&f.logFormat, "log-format", "text", "log format: text or json")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
	fl.BoolVar(&f.headless, "headless", false, "run without a window until interrupted")
	fl.StringVar(&f.mqttBroker, "mqtt-broker", "", "publish health reports to this MQTT broker (e.g. tcp://localhost:1883)")

	return cmd
}

// loadConfig reads the config file, or starts from the defaults, and applies
// flags the user set explicitly on top of it.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fl := cmd.Flags()
	if fl.Changed("device") {
		cfg.DevicePath = f.device
	}
	if fl.Changed("width") {
		cfg.Window.Width = f.width
	}
	if fl.Changed("height") {
		cfg.Window.Height = f.height
	}
	if fl.Changed("source") {
		cfg.Source = f.source
	}
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if fl.Changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
	if fl.Changed("metrics-addr") {
		cfg.Metrics.Listen = f.metricsAddr
	}
	if f.headless {
		cfg.Window.Headless = true
	}
	if fl.Changed("mqtt-broker") {
		cfg.Telemetry.Broker = f.mqttBroker
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
