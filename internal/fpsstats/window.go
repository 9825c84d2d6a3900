package fpsstats

import (
	"sync"
	"time"
)

// DefaultWindowSize keeps a few seconds of history at typical camera rates.
const DefaultWindowSize = 120

// Window is a bounded ring of frame timestamps. Safe for concurrent use.
type Window struct {
	mu    sync.Mutex
	times []time.Time
	next  int
	count int
}

// NewWindow returns a window holding at most size timestamps.
// A non-positive size selects DefaultWindowSize.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{times: make([]time.Time, size)}
}

// Add records one frame timestamp, evicting the oldest when full.
func (w *Window) Add(t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.times[w.next] = t
	w.next = (w.next + 1) % len(w.times)
	if w.count < len(w.times) {
		w.count++
	}
}

// Len returns the number of timestamps held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Snapshot returns the held timestamps, oldest first.
func (w *Window) Snapshot() []time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]time.Time, w.count)
	start := (w.next - w.count + len(w.times)) % len(w.times)
	for i := range w.count {
		out[i] = w.times[(start+i)%len(w.times)]
	}
	return out
}

// Stats computes Calculate over the current window.
func (w *Window) Stats() Stats {
	return Calculate(w.Snapshot())
}
