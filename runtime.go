package camview

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Stage names of the acquisition pipeline, in link order.
const (
	StageSource  = "source"
	StageConvert = "convert"
	StageFilter  = "filter"
	StageSink    = "sink"
)

// StageSpec is what a runtime needs to build the four stages.
type StageSpec struct {
	DevicePath string
	Width      int
	Height     int
	// Format is the only format the sink accepts. Always FormatRGB today.
	Format FrameFormat
}

// Caps renders s as a GStreamer caps string.
func (s StageSpec) Caps() string {
	return fmt.Sprintf("video/x-raw,format=%s,width=%d,height=%d", s.Format, s.Width, s.Height)
}

// Runtime is a capture backend. It owns the thread that delivers samples.
//
// Implementations must guarantee:
//   - Link builds source → convert → filter → sink and leaves the runtime in Null
//   - the callback registered with OnSample runs on the runtime's own thread
//   - Play blocks until the pipeline is playing or has failed
//   - Halt returns to Null, stops new pulls, waits for an in-flight callback,
//     and is safe to call at any time (including before Play)
type Runtime interface {
	Link(spec StageSpec) error
	OnSample(fn SampleFunc)
	Play(ctx context.Context) error
	Halt() error
}

// StageError lets a runtime tell which stage failed during Link.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// RuntimeFactory creates a fresh Runtime per CaptureGraph.
type RuntimeFactory func() Runtime

var (
	runtimesMu sync.RWMutex
	runtimes   = make(map[string]RuntimeFactory)
)

// RegisterRuntime makes a capture backend available by name. Backends call
// it from init; it panics on a duplicate name.
func RegisterRuntime(name string, factory RuntimeFactory) {
	runtimesMu.Lock()
	defer runtimesMu.Unlock()

	if factory == nil {
		panic("camview: RegisterRuntime factory is nil")
	}
	if _, dup := runtimes[name]; dup {
		panic("camview: RegisterRuntime called twice for " + name)
	}
	runtimes[name] = factory
}

// Runtimes returns the sorted names of registered backends.
func Runtimes() []string {
	runtimesMu.RLock()
	defer runtimesMu.RUnlock()

	names := make([]string, 0, len(runtimes))
	for name := range runtimes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupRuntime(name string) (RuntimeFactory, bool) {
	runtimesMu.RLock()
	defer runtimesMu.RUnlock()
	f, ok := runtimes[name]
	return f, ok
}
