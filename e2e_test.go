package camview_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/e7canasta/camview"
	"github.com/e7canasta/camview/internal/synthetic"
	"github.com/e7canasta/camview/internal/uiloop"
)

type captureSurface struct {
	mu     sync.Mutex
	frames []camview.PixelBuffer
}

func (s *captureSurface) SetVideoFrame(buf camview.PixelBuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, buf)
}

func (s *captureSurface) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *captureSurface) last() camview.PixelBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[len(s.frames)-1]
}

type harness struct {
	registry *camview.SurfaceRegistry
	id       camview.SurfaceID
	surface  *captureSurface
	queue    *uiloop.Queue
	bridge   *camview.FrameBridge
	rt       *synthetic.Runtime
	graph    *camview.CaptureGraph
}

func startHarness(t *testing.T, geom camview.WindowGeometry) *harness {
	t.Helper()

	h := &harness{
		registry: camview.NewSurfaceRegistry(),
		surface:  &captureSurface{},
		queue:    uiloop.New(0),
		rt:       synthetic.New(),
	}
	h.id = h.registry.Register(h.surface)
	h.bridge = camview.NewFrameBridge(h.registry, h.id, h.queue, camview.WithBridgeLogger(quietLogger()))

	g, err := camview.Build(camview.GraphConfig{DevicePath: "/dev/video0", Geometry: geom}, h.bridge,
		camview.WithRuntime(h.rt), camview.WithGraphLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	h.graph = g

	t.Cleanup(func() {
		h.registry.Unregister(h.id)
		h.graph.Stop()
		h.queue.Close()
	})
	return h
}

func (h *harness) inject(t *testing.T, frame camview.RawFrame) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.rt.Inject(ctx, frame); err != nil {
		t.Fatalf("Inject() failed: %v", err)
	}
}

func TestEndToEnd_RGBFrameReachesSurface(t *testing.T) {
	h := startHarness(t, vga)

	h.inject(t, synthetic.Solid(640, 480, 10, 20, 30))
	h.queue.Drain()

	if h.surface.count() != 1 {
		t.Fatalf("SetVideoFrame calls = %d, want 1", h.surface.count())
	}
	buf := h.surface.last()
	if len(buf.Data) != 921600 {
		t.Errorf("len(Data) = %d, want 921600", len(buf.Data))
	}
	if buf.Data[0] != 10 || buf.Data[1] != 20 || buf.Data[2] != 30 {
		t.Errorf("first pixel = %v, want [10 20 30]", buf.Data[:3])
	}
}

func TestEndToEnd_PaddedStrideFrame(t *testing.T) {
	h := startHarness(t, camview.WindowGeometry{Width: 10, Height: 4})

	h.inject(t, synthetic.ColorBars(10, 4, 0))
	h.queue.Drain()

	if h.surface.count() != 1 {
		t.Fatalf("SetVideoFrame calls = %d, want 1", h.surface.count())
	}
	if got := len(h.surface.last().Data); got != 120 {
		t.Errorf("len(Data) = %d, want 120", got)
	}
}

func TestEndToEnd_NonRGBFrameDropped(t *testing.T) {
	h := startHarness(t, vga)

	frame := synthetic.Solid(640, 480, 1, 1, 1)
	frame.Format = camview.FormatYUY2
	h.inject(t, frame)
	h.queue.Drain()

	if h.surface.count() != 0 {
		t.Fatal("non-RGB frame reached the surface")
	}
	if h.graph.State() != camview.StatePlaying {
		t.Errorf("State() = %v, want playing", h.graph.State())
	}
	if h.bridge.Stats().UnsupportedFormat != 1 {
		t.Errorf("UnsupportedFormat = %d, want 1", h.bridge.Stats().UnsupportedFormat)
	}

	// The next good frame still goes through.
	h.inject(t, synthetic.Solid(640, 480, 1, 1, 1))
	h.queue.Drain()
	if h.surface.count() != 1 {
		t.Errorf("SetVideoFrame calls = %d after recovery, want 1", h.surface.count())
	}
}

func TestEndToEnd_SlowUIKeepsNewestFrame(t *testing.T) {
	h := startHarness(t, camview.WindowGeometry{Width: 8, Height: 8})

	for i := 0; i < 10; i++ {
		h.inject(t, synthetic.Solid(8, 8, byte(i), 0, 0))
	}
	if h.queue.Pending() != 1 {
		t.Fatalf("queued tasks = %d, want 1", h.queue.Pending())
	}
	h.queue.Drain()

	if h.surface.count() != 1 {
		t.Fatalf("SetVideoFrame calls = %d, want 1", h.surface.count())
	}
	if got := h.surface.last().Data[0]; got != 9 {
		t.Errorf("delivered frame red = %d, want 9 (newest)", got)
	}
}

func TestEndToEnd_ShutdownWithPendingFrame(t *testing.T) {
	h := startHarness(t, vga)

	h.inject(t, synthetic.Solid(640, 480, 5, 5, 5))

	// Window closes with a converted frame still queued.
	h.registry.Unregister(h.id)
	if err := h.graph.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	h.queue.Drain()

	if h.surface.count() != 0 {
		t.Fatal("frame delivered after the surface was destroyed")
	}
	if h.bridge.Stats().SurfaceGone != 1 {
		t.Errorf("SurfaceGone = %d, want 1", h.bridge.Stats().SurfaceGone)
	}
	if h.graph.State() != camview.StateNull {
		t.Errorf("State() = %v, want null", h.graph.State())
	}
}
