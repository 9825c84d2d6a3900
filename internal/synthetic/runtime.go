// Package synthetic is a capture runtime without hardware.
//
// A goroutine stands in for the pipeline's streaming thread: frames handed
// to Inject, and optional colour bars at a fixed rate, reach the sample
// callback on that goroutine exactly as GStreamer samples would.
package synthetic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/e7canasta/camview"
)

// Name is the registered runtime name.
const Name = "synthetic"

// ErrNotPlaying is returned by Inject when the runtime is not playing.
var ErrNotPlaying = errors.New("synthetic: runtime not playing")

func init() {
	camview.RegisterRuntime(Name, func() camview.Runtime { return New() })
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLinkError makes Link fail on stage with err.
func WithLinkError(stage string, err error) Option {
	return func(r *Runtime) {
		r.linkErr = &camview.StageError{Stage: stage, Err: err}
	}
}

// WithPlayError makes Play fail with err, as a device that cannot be opened.
func WithPlayError(err error) Option {
	return func(r *Runtime) { r.playErr = err }
}

// WithPattern emits colour bars at fps while playing.
func WithPattern(fps float64) Option {
	return func(r *Runtime) { r.patternFPS = fps }
}

type injection struct {
	frame camview.RawFrame
	done  chan struct{}
}

// Runtime implements camview.Runtime.
type Runtime struct {
	linkErr    error
	playErr    error
	patternFPS float64

	mu      sync.Mutex
	spec    camview.StageSpec
	linked  bool
	handler camview.SampleFunc
	cancel  context.CancelFunc
	done    chan struct{}

	frames  chan injection
	playing atomic.Bool
	seq     atomic.Uint64
	samples atomic.Uint64
}

// New returns an unlinked runtime.
func New(opts ...Option) *Runtime {
	r := &Runtime{frames: make(chan injection)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Link records the stage spec. Nothing is allocated until Play.
func (r *Runtime) Link(spec camview.StageSpec) error {
	if r.linkErr != nil {
		return r.linkErr
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return &camview.StageError{Stage: camview.StageFilter, Err: fmt.Errorf("invalid caps %s", spec.Caps())}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.spec = spec
	r.linked = true

	slog.Debug("synthetic: stages linked", "caps", spec.Caps())
	return nil
}

// OnSample registers the per-sample callback.
func (r *Runtime) OnSample(fn camview.SampleFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = fn
}

// Play starts the capture goroutine.
func (r *Runtime) Play(ctx context.Context) error {
	if r.playErr != nil {
		return r.playErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.linked {
		return errors.New("synthetic: Play before Link")
	}
	if r.cancel != nil {
		return nil
	}

	// The loop outlives Play's ctx, which only bounds startup.
	loopCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.playing.Store(true)

	go r.loop(loopCtx, r.handler, r.done)
	return nil
}

// Halt stops the capture goroutine and waits for an in-flight callback.
// Safe to call at any time.
func (r *Runtime) Halt() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	r.playing.Store(false)
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Inject hands frame to the capture goroutine and waits until the callback
// for it has returned. Seq and Timestamp are filled in when zero.
func (r *Runtime) Inject(ctx context.Context, frame camview.RawFrame) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil || !r.playing.Load() {
		return ErrNotPlaying
	}

	inj := injection{frame: frame, done: make(chan struct{})}
	select {
	case r.frames <- inj:
	case <-done:
		return ErrNotPlaying
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-inj.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Samples returns how many callbacks have completed.
func (r *Runtime) Samples() uint64 {
	return r.samples.Load()
}

// Playing reports whether the capture goroutine is running.
func (r *Runtime) Playing() bool {
	return r.playing.Load()
}

func (r *Runtime) loop(ctx context.Context, handler camview.SampleFunc, done chan struct{}) {
	defer close(done)

	var tick <-chan time.Time
	if r.patternFPS > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / r.patternFPS))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case inj := <-r.frames:
			r.emit(handler, inj.frame)
			close(inj.done)
		case <-tick:
			r.emit(handler, ColorBars(r.spec.Width, r.spec.Height, r.seq.Load()))
		}
	}
}

func (r *Runtime) emit(handler camview.SampleFunc, frame camview.RawFrame) {
	if frame.Seq == 0 {
		frame.Seq = r.seq.Add(1)
	}
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}
	if handler != nil {
		handler(frame)
	}
	r.samples.Add(1)
}
