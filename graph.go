package camview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/e7canasta/camview/internal/events"
)

// DefaultStartTimeout bounds how long Start waits for the device to reach
// the playing state.
const DefaultStartTimeout = 5 * time.Second

// DefaultRuntime is the backend used when GraphConfig.Runtime is empty.
const DefaultRuntime = "gstreamer"

// GraphConfig is read once at startup and never re-read.
type GraphConfig struct {
	// DevicePath is the capture device, e.g. /dev/video0.
	DevicePath string
	// Geometry fixes the negotiated capture resolution.
	Geometry WindowGeometry
	// Runtime names a registered backend (default "gstreamer").
	Runtime string
	// StartTimeout bounds Start (default 5s).
	StartTimeout time.Duration
}

// CaptureGraph owns the acquisition pipeline source → convert → filter → sink
// and its lifecycle.
//
// Lifecycle: Build() → Start() → Stop(). The graph is created in Null, goes
// to Playing on Start and back to Null on Stop. Intermediate states belong to
// the runtime and are never reported.
type CaptureGraph struct {
	cfg     GraphConfig
	rt      Runtime
	handler SampleHandler

	logger *slog.Logger
	bus    *events.Bus

	mu        sync.Mutex
	state     PipelineState
	startedAt time.Time
}

// GraphOption configures a CaptureGraph.
type GraphOption func(*CaptureGraph)

// WithRuntime uses rt instead of looking up cfg.Runtime in the registry.
func WithRuntime(rt Runtime) GraphOption {
	return func(g *CaptureGraph) { g.rt = rt }
}

// WithGraphLogger sets the logger (default slog.Default()).
func WithGraphLogger(l *slog.Logger) GraphOption {
	return func(g *CaptureGraph) { g.logger = l }
}

// WithGraphEvents publishes state changes to bus.
func WithGraphEvents(bus *events.Bus) GraphOption {
	return func(g *CaptureGraph) { g.bus = bus }
}

// Build constructs the four stages for cfg and registers handler as the
// per-sample callback. The graph is returned in StateNull.
//
// This function:
//  1. Applies defaults for the runtime name and start timeout
//  2. Validates the handler and the geometry
//  3. Resolves the runtime from the registry unless WithRuntime set one
//  4. Links source, convert, filter and sink for RGB at the geometry
//  5. Registers handler.OnSample with the runtime
//
// Validation happens here, once: the sink only ever accepts RGB at the
// configured geometry, so frames of any other shape are a contract
// violation caught by the converter rather than a per-frame branch.
//
// Returns *GraphConstructionError if any stage cannot be created or linked.
func Build(cfg GraphConfig, handler SampleHandler, opts ...GraphOption) (*CaptureGraph, error) {
	g := &CaptureGraph{
		cfg:     cfg,
		handler: handler,
		logger:  slog.Default(),
		state:   StateNull,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.cfg.Runtime == "" {
		g.cfg.Runtime = DefaultRuntime
	}
	if g.cfg.StartTimeout <= 0 {
		g.cfg.StartTimeout = DefaultStartTimeout
	}

	if handler == nil {
		return nil, &GraphConstructionError{Stage: StageSink, Err: errors.New("no sample handler")}
	}
	if err := g.cfg.Geometry.Validate(); err != nil {
		return nil, &GraphConstructionError{Stage: StageFilter, Err: err}
	}

	if g.rt == nil {
		factory, ok := lookupRuntime(g.cfg.Runtime)
		if !ok {
			return nil, &GraphConstructionError{
				Stage: "graph",
				Err:   fmt.Errorf("unknown runtime %q (registered: %v)", g.cfg.Runtime, Runtimes()),
			}
		}
		g.rt = factory()
	}

	spec := StageSpec{
		DevicePath: g.cfg.DevicePath,
		Width:      g.cfg.Geometry.Width,
		Height:     g.cfg.Geometry.Height,
		Format:     FormatRGB,
	}

	if err := g.rt.Link(spec); err != nil {
		stage := "graph"
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
			err = stageErr.Err
		}
		return nil, &GraphConstructionError{Stage: stage, Err: err}
	}

	g.rt.OnSample(handler.OnSample)

	g.logger.Info("camview: capture graph built",
		"device", g.cfg.DevicePath,
		"runtime", g.cfg.Runtime,
		"caps", spec.Caps(),
	)

	return g, nil
}

// Start moves the graph from Null to Playing.
//
// This function:
//  1. Refuses a graph that is already playing
//  2. Bounds the transition by StartTimeout on top of ctx
//  3. Asks the runtime to play and halts it again if that fails
//  4. Records StatePlaying and the start time
//
// Returns *StateTransitionError if the device cannot be opened, caps are
// rejected downstream, the start timeout expires, or the graph is already
// playing. On failure the runtime is returned to Null.
func (g *CaptureGraph) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StatePlaying {
		return &StateTransitionError{From: StatePlaying, To: StatePlaying, Err: errors.New("already playing")}
	}

	g.logger.Info("camview: starting capture graph",
		"device", g.cfg.DevicePath,
		"geometry", g.cfg.Geometry.String(),
		"timeout", g.cfg.StartTimeout,
	)

	playCtx, cancel := context.WithTimeout(ctx, g.cfg.StartTimeout)
	defer cancel()

	if err := g.rt.Play(playCtx); err != nil {
		if haltErr := g.rt.Halt(); haltErr != nil {
			g.logger.Warn("camview: failed to reset runtime after start failure", "error", haltErr)
		}
		return &StateTransitionError{From: StateNull, To: StatePlaying, Err: err}
	}

	g.setState(StatePlaying)
	g.startedAt = time.Now()

	g.logger.Info("camview: capture graph playing", "device", g.cfg.DevicePath)
	return nil
}

// Stop returns the graph to Null and releases the device.
//
// Idempotent. Safe before Start, after a failed Start, and during shutdown.
// A callback already running on the capture thread is allowed to finish.
func (g *CaptureGraph) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateNull {
		g.logger.Debug("camview: capture graph not playing, nothing to stop")
		return nil
	}

	g.logger.Info("camview: stopping capture graph")

	err := g.rt.Halt()
	g.setState(StateNull)

	g.logger.Info("camview: capture graph stopped",
		"device", g.cfg.DevicePath,
		"uptime", time.Since(g.startedAt),
	)

	if err != nil {
		return &StateTransitionError{From: StatePlaying, To: StateNull, Err: err}
	}
	return nil
}

// State returns StateNull or StatePlaying.
func (g *CaptureGraph) State() PipelineState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Config returns the effective configuration, defaults applied.
func (g *CaptureGraph) Config() GraphConfig {
	return g.cfg
}

// setState records a transition. Caller holds g.mu.
func (g *CaptureGraph) setState(to PipelineState) {
	from := g.state
	g.state = to

	events.Publish(g.bus, events.StateChanged{
		Device:    g.cfg.DevicePath,
		From:      from.String(),
		To:        to.String(),
		Timestamp: time.Now(),
	})
}
