//go:build cgo

// Package gstpipe is the GStreamer capture runtime, registered as "gstreamer".
package gstpipe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/e7canasta/camview"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

func init() {
	camview.RegisterRuntime(Name, func() camview.Runtime { return New() })
}

// Runtime implements camview.Runtime on a v4l2src pipeline.
type Runtime struct {
	opts options

	mu       sync.Mutex
	spec     camview.StageSpec
	elements *elements
	handler  camview.SampleFunc
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	frames uint64
	bytes  uint64
	empty  uint64
}

// Stats is a snapshot of sample counters.
type Stats struct {
	Samples      uint64
	BytesRead    uint64
	EmptySamples uint64
}

// New returns an unlinked runtime.
func New(opts ...Option) *Runtime {
	return &Runtime{opts: newOptions(opts)}
}

// Link creates the four stages and leaves the pipeline in NULL.
func (r *Runtime) Link(spec camview.StageSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.elements != nil {
		return &camview.StageError{Stage: "graph", Err: errors.New("already linked")}
	}

	e, err := createPipeline(spec, r.opts.logger)
	if err != nil {
		return err
	}
	r.spec = spec
	r.elements = e
	return nil
}

// OnSample registers fn as the appsink new-sample callback.
func (r *Runtime) OnSample(fn camview.SampleFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handler = fn
	if r.elements == nil {
		return
	}

	sc := &sampleContext{
		handler: fn,
		seq:     &r.frames,
		bytes:   &r.bytes,
		empty:   &r.empty,
		logger:  r.opts.logger,
		width:   r.spec.Width,
		height:  r.spec.Height,
	}
	r.elements.sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return onNewSample(sink, sc)
		},
	})
}

// Play sets the pipeline to PLAYING and waits for the transition to
// complete, an error on the bus, or ctx to end.
func (r *Runtime) Play(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.elements == nil {
		return errors.New("gstpipe: Play before Link")
	}
	if r.cancel != nil {
		return nil
	}

	if err := r.elements.pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("gstpipe: set PLAYING: %w", err)
	}
	if err := waitPlaying(ctx, r.elements.pipeline); err != nil {
		return err
	}

	monitorCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		monitorBus(monitorCtx, r.elements.pipeline, r.opts.bus, r.opts.logger, r.spec.DevicePath)
	}()

	r.opts.logger.Info("gstpipe: pipeline playing", "device", r.spec.DevicePath, "caps", r.spec.Caps())
	return nil
}

// Halt sets the pipeline to NULL. GStreamer joins the streaming thread
// before returning, so no callback runs afterwards. Safe at any time.
func (r *Runtime) Halt() error {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	e := r.elements
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		r.wg.Wait()
	}
	return destroyPipeline(e)
}

// Stats returns the sample counters.
func (r *Runtime) Stats() Stats {
	return Stats{
		Samples:      atomic.LoadUint64(&r.frames),
		BytesRead:    atomic.LoadUint64(&r.bytes),
		EmptySamples: atomic.LoadUint64(&r.empty),
	}
}
