package display

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/e7canasta/camview"
	"github.com/e7canasta/camview/internal/uiloop"
)

// Headless is a DisplaySurface with no window. Its Run drives the UI queue
// directly, so deliveries follow the same single-goroutine path as Window.
// Used for soak runs and on machines without a display server.
type Headless struct {
	registry *camview.SurfaceRegistry
	queue    *uiloop.Queue
	id       camview.SurfaceID
	logger   *slog.Logger

	frameBytes int
	frames     atomic.Uint64
	misshapen  atomic.Uint64
}

// NewHeadless creates a headless surface for geometry and registers it.
func NewHeadless(registry *camview.SurfaceRegistry, queue *uiloop.Queue, geometry camview.WindowGeometry, logger *slog.Logger) *Headless {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Headless{
		registry:   registry,
		queue:      queue,
		logger:     logger,
		frameBytes: geometry.FrameBytes(),
	}
	h.id = registry.Register(h)
	return h
}

// ID is the handle the frame bridge dispatches to.
func (h *Headless) ID() camview.SurfaceID {
	return h.id
}

// SetVideoFrame counts buf and checks it against the configured geometry.
func (h *Headless) SetVideoFrame(buf camview.PixelBuffer) {
	n := h.frames.Add(1)
	if len(buf.Data) != h.frameBytes {
		h.misshapen.Add(1)
		h.logger.Debug("camview: headless frame size differs from geometry",
			"frame", n, "bytes", len(buf.Data), "want", h.frameBytes)
	}
}

// Frames counts SetVideoFrame calls.
func (h *Headless) Frames() uint64 {
	return h.frames.Load()
}

// Misshapen counts frames whose size did not match the geometry.
func (h *Headless) Misshapen() uint64 {
	return h.misshapen.Load()
}

// Run executes queued deliveries until ctx is cancelled. The surface is
// unregistered before Run returns.
func (h *Headless) Run(ctx context.Context) error {
	defer h.registry.Unregister(h.id)
	h.queue.Run(ctx)
	return nil
}
