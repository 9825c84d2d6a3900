package camview

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/e7canasta/camview/internal/events"
	"github.com/e7canasta/camview/internal/fpsstats"
)

// FrameBridge moves converted frames from the capture thread to the UI
// goroutine.
//
// Design:
//   - Single-slot mailbox: a new buffer overwrites an undelivered one (never queues)
//   - At most one delivery task is posted to the UI queue at any time
//   - The surface is resolved by SurfaceID when the task runs, not when the
//     bridge is created, so a destroyed window turns delivery into a no-op
//
// A bad frame is dropped and reported; it never reaches pipeline state.
type FrameBridge struct {
	surfaces *SurfaceRegistry
	target   SurfaceID
	ui       Dispatcher

	logger *slog.Logger
	bus    *events.Bus
	fps    *fpsstats.Window

	// --- Mailbox State ---

	mu      sync.Mutex
	pending *PixelBuffer // nil = nothing waiting for the UI goroutine
	posted  bool         // a delivery task is queued and has not run yet

	// --- Operational Stats ---

	received       uint64
	converted      uint64
	unsupported    uint64
	sizeMismatch   uint64
	overwritten    uint64
	delivered      uint64
	surfaceGone    uint64
	postRejected   uint64
	lastDeliveryNs int64
}

// BridgeStats is a snapshot of FrameBridge counters.
type BridgeStats struct {
	// Received counts every OnSample call.
	Received uint64
	// Converted counts frames that passed Convert.
	Converted uint64
	// UnsupportedFormat and SizeMismatch count conversion failures by kind.
	UnsupportedFormat uint64
	SizeMismatch      uint64
	// Overwritten counts converted frames replaced before the UI took them.
	Overwritten uint64
	// Delivered counts SetVideoFrame calls.
	Delivered uint64
	// SurfaceGone counts dispatches that found no surface.
	SurfaceGone uint64
	// PostRejected counts delivery tasks the UI queue refused.
	PostRejected uint64
	// LastDeliveryAt is zero until the first delivery.
	LastDeliveryAt time.Time
	// FPS describes the delivered frame rate over the recent window.
	FPS fpsstats.Stats
}

// Dropped is the total number of received frames that were not delivered.
func (s BridgeStats) Dropped() uint64 {
	return s.UnsupportedFormat + s.SizeMismatch + s.Overwritten + s.SurfaceGone + s.PostRejected
}

// BridgeOption configures a FrameBridge.
type BridgeOption func(*FrameBridge)

// WithBridgeLogger sets the logger (default slog.Default()).
func WithBridgeLogger(l *slog.Logger) BridgeOption {
	return func(b *FrameBridge) { b.logger = l }
}

// WithBridgeEvents publishes drop and delivery events to bus.
func WithBridgeEvents(bus *events.Bus) BridgeOption {
	return func(b *FrameBridge) { b.bus = bus }
}

// WithFPSWindow sets how many delivery timestamps feed BridgeStats.FPS.
func WithFPSWindow(size int) BridgeOption {
	return func(b *FrameBridge) { b.fps = fpsstats.NewWindow(size) }
}

// NewFrameBridge creates a bridge delivering to the surface registered as
// target, running deliveries through ui.
func NewFrameBridge(surfaces *SurfaceRegistry, target SurfaceID, ui Dispatcher, opts ...BridgeOption) *FrameBridge {
	b := &FrameBridge{
		surfaces: surfaces,
		target:   target,
		ui:       ui,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.fps == nil {
		b.fps = fpsstats.NewWindow(0)
	}
	return b
}

// OnSample is the per-sample callback. It runs on the capture thread.
//
// This function:
//  1. Converts raw into an owned PixelBuffer, dropping it on failure
//  2. Places the buffer in the mailbox, overwriting any undelivered one
//  3. Posts a delivery task unless one is already queued
//  4. Clears the mailbox if the UI queue rejects the task
//
// It never blocks on the UI goroutine and never panics on malformed input.
func (b *FrameBridge) OnSample(raw RawFrame) {
	atomic.AddUint64(&b.received, 1)

	buf, err := Convert(raw)
	if err != nil {
		b.reject(raw, err)
		return
	}
	atomic.AddUint64(&b.converted, 1)

	b.mu.Lock()
	if b.pending != nil {
		atomic.AddUint64(&b.overwritten, 1)
		events.Publish(b.bus, events.FrameDropped{Seq: b.pending.Seq, Reason: events.DropOverwritten})
	}
	b.pending = &buf
	needPost := !b.posted
	b.posted = true
	b.mu.Unlock()

	if !needPost {
		return
	}

	if !b.ui.Post(b.deliver) {
		b.mu.Lock()
		dropped := b.pending
		b.pending = nil
		b.posted = false
		b.mu.Unlock()

		atomic.AddUint64(&b.postRejected, 1)
		if dropped != nil {
			events.Publish(b.bus, events.FrameDropped{Seq: dropped.Seq, Reason: events.DropPostRejected})
		}
		b.logger.Debug("camview: ui queue rejected delivery task, frame dropped", "seq", buf.Seq)
	}
}

// reject accounts for a frame that failed conversion.
func (b *FrameBridge) reject(raw RawFrame, err error) {
	reason := "unknown"
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		switch convErr.Kind {
		case UnsupportedFormat:
			atomic.AddUint64(&b.unsupported, 1)
			reason = events.DropUnsupportedFormat
		case SizeMismatch:
			atomic.AddUint64(&b.sizeMismatch, 1)
			reason = events.DropSizeMismatch
		}
	}

	b.logger.Warn("camview: dropping frame, conversion failed",
		"seq", raw.Seq,
		"format", raw.Format.String(),
		"width", raw.Width,
		"height", raw.Height,
		"bytes", len(raw.Data),
		"error", err,
	)
	events.Publish(b.bus, events.FrameDropped{Seq: raw.Seq, Reason: reason})
}

// deliver is the delivery task. It runs on the UI goroutine.
//
// This function:
//  1. Takes the newest pending buffer and clears the posted flag, so the
//     next OnSample posts a fresh task
//  2. Resolves the surface handle; a gone surface discards the buffer
//  3. Calls SetVideoFrame and records delivery time, FPS and latency
func (b *FrameBridge) deliver() {
	b.mu.Lock()
	buf := b.pending
	b.pending = nil
	b.posted = false
	b.mu.Unlock()

	if buf == nil {
		return
	}

	if err := b.dispatch(*buf); err != nil {
		atomic.AddUint64(&b.surfaceGone, 1)
		events.Publish(b.bus, events.FrameDropped{Seq: buf.Seq, Reason: events.DropSurfaceGone})
		b.logger.Debug("camview: display surface gone, frame discarded", "seq", buf.Seq)
		return
	}

	now := time.Now()
	atomic.AddUint64(&b.delivered, 1)
	atomic.StoreInt64(&b.lastDeliveryNs, now.UnixNano())
	b.fps.Add(now)

	var latency time.Duration
	if !buf.Timestamp.IsZero() {
		latency = now.Sub(buf.Timestamp)
	}
	events.Publish(b.bus, events.FrameDelivered{Seq: buf.Seq, Bytes: len(buf.Data), Latency: latency})
}

// dispatch resolves the weak surface handle and renders buf on it.
func (b *FrameBridge) dispatch(buf PixelBuffer) error {
	surface, ok := b.surfaces.Resolve(b.target)
	if !ok {
		return ErrSurfaceGone
	}
	surface.SetVideoFrame(buf)
	return nil
}

// Stats returns a snapshot of the bridge counters. Safe from any goroutine.
func (b *FrameBridge) Stats() BridgeStats {
	var last time.Time
	if ns := atomic.LoadInt64(&b.lastDeliveryNs); ns != 0 {
		last = time.Unix(0, ns)
	}

	return BridgeStats{
		Received:          atomic.LoadUint64(&b.received),
		Converted:         atomic.LoadUint64(&b.converted),
		UnsupportedFormat: atomic.LoadUint64(&b.unsupported),
		SizeMismatch:      atomic.LoadUint64(&b.sizeMismatch),
		Overwritten:       atomic.LoadUint64(&b.overwritten),
		Delivered:         atomic.LoadUint64(&b.delivered),
		SurfaceGone:       atomic.LoadUint64(&b.surfaceGone),
		PostRejected:      atomic.LoadUint64(&b.postRejected),
		LastDeliveryAt:    last,
		FPS:               b.fps.Stats(),
	}
}
