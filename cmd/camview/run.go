package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/e7canasta/camview"
	"github.com/e7canasta/camview/internal/config"
	"github.com/e7canasta/camview/internal/display"
	"github.com/e7canasta/camview/internal/events"
	"github.com/e7canasta/camview/internal/gstpipe"
	"github.com/e7canasta/camview/internal/metrics"
	"github.com/e7canasta/camview/internal/synthetic"
	"github.com/e7canasta/camview/internal/telemetry"
	"github.com/e7canasta/camview/internal/uiloop"
)

const statsInterval = 10 * time.Second

// run wires the capture graph to the window, or to a headless surface, and
// blocks until the window is closed or a signal arrives. Any error returned
// happens before the UI loop starts.
func run(parent context.Context, cfg *config.Config) error {
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	geometry := camview.WindowGeometry{Width: cfg.Window.Width, Height: cfg.Window.Height}

	logger.Info("camview: starting",
		"instance_id", cfg.InstanceID,
		"source", cfg.Source,
		"device", cfg.DevicePath,
		"geometry", geometry.String(),
		"frame_bytes", geometry.FrameBytes(),
		"headless", cfg.Window.Headless,
	)

	bus := events.New()

	var collectors *metrics.Collectors
	if cfg.Metrics.Listen != "" {
		collectors = metrics.New()
		defer collectors.Attach(bus)()
		go func() {
			if err := collectors.Serve(ctx, cfg.Metrics.Listen); err != nil {
				logger.Error("camview: metrics endpoint failed", "error", err)
			}
		}()
	}

	registry := camview.NewSurfaceRegistry()
	queue := uiloop.New(0)
	defer queue.Close()

	var (
		surfaceID camview.SurfaceID
		runUI     func() error
		frames    func() uint64
	)
	if cfg.Window.Headless {
		headless := display.NewHeadless(registry, queue, geometry, logger)
		surfaceID, frames = headless.ID(), headless.Frames
		runUI = func() error { return headless.Run(ctx) }
	} else {
		window := display.NewWindow(registry, queue, geometry, cfg.Window.Title)
		surfaceID, frames = window.ID(), window.Frames
		runUI = func() error {
			go func() {
				<-ctx.Done()
				window.Close()
			}()
			return window.Run()
		}
	}

	bridge := camview.NewFrameBridge(registry, surfaceID, queue,
		camview.WithBridgeLogger(logger),
		camview.WithBridgeEvents(bus),
	)

	rt := newRuntime(cfg, logger, bus)
	graph, err := camview.Build(camview.GraphConfig{
		DevicePath:   cfg.DevicePath,
		Geometry:     geometry,
		Runtime:      cfg.Source,
		StartTimeout: cfg.StartTimeout(),
	}, bridge,
		camview.WithRuntime(rt),
		camview.WithGraphLogger(logger),
		camview.WithGraphEvents(bus),
	)
	if err != nil {
		logger.Error("camview: failed to build capture graph", "error", err)
		return err
	}

	if err := graph.Start(ctx); err != nil {
		logger.Error("camview: failed to start capture graph", "error", err)
		return err
	}
	startedAt := time.Now()

	if cfg.Telemetry.Broker != "" {
		reporter := telemetry.NewReporter(telemetry.Options{
			Broker:     cfg.Telemetry.Broker,
			InstanceID: cfg.InstanceID,
			Topic:      cfg.Telemetry.Topic,
			QoS:        cfg.Telemetry.QoS,
			Logger:     logger,
		})
		if err := reporter.Connect(ctx); err != nil {
			logger.Warn("camview: telemetry disabled, mqtt connect failed", "error", err)
		} else {
			defer reporter.Disconnect()
			go reporter.Run(ctx, cfg.TelemetryInterval(), func() telemetry.Snapshot {
				return telemetry.Snapshot{
					Device:    cfg.DevicePath,
					State:     graph.State(),
					StartedAt: startedAt,
					Bridge:    bridge.Stats(),
				}
			})
		}
	}

	go reportStats(ctx, statsInterval, bridge, collectors, logger)

	runErr := runUI()

	// The surface has unregistered itself; stop capture before the queue closes.
	stop()
	if err := graph.Stop(); err != nil {
		logger.Warn("camview: capture graph did not stop cleanly", "error", err)
	}

	final := bridge.Stats()
	logger.Info("camview: shutdown complete",
		"uptime", time.Since(startedAt).Round(time.Second),
		"received", final.Received,
		"delivered", final.Delivered,
		"dropped", final.Dropped(),
		"displayed", frames(),
	)

	if gst, ok := rt.(*gstpipe.Runtime); ok {
		rs := gst.Stats()
		logger.Info("camview: capture runtime stats",
			"samples", rs.Samples,
			"bytes_read", rs.BytesRead,
			"empty_samples", rs.EmptySamples,
		)
	}

	if runErr != nil {
		logger.Error("camview: ui loop failed", "error", runErr)
	}
	return runErr
}

// newRuntime picks the capture backend named by cfg.Source.
func newRuntime(cfg *config.Config, logger *slog.Logger, bus *events.Bus) camview.Runtime {
	if cfg.Source == synthetic.Name {
		return synthetic.New(synthetic.WithPattern(cfg.Synthetic.FPS))
	}
	return gstpipe.New(gstpipe.WithLogger(logger), gstpipe.WithEvents(bus))
}
