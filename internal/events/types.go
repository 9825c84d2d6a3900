package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeStateChanged uint32 = iota + 1
	TypeFrameDropped
	TypeFrameDelivered
	TypePipelineError
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StateChanged is published on every CaptureGraph lifecycle transition.
type StateChanged struct {
	Device    string
	From      string
	To        string
	Timestamp time.Time
}

// Type returns the event type identifier for StateChanged.
func (e StateChanged) Type() uint32 { return TypeStateChanged }

// FrameDropped is published when a sample never reaches the display.
// Reason is one of the Drop* constants.
type FrameDropped struct {
	Seq    uint64
	Reason string
}

// Type returns the event type identifier for FrameDropped.
func (e FrameDropped) Type() uint32 { return TypeFrameDropped }

// Drop reasons.
const (
	DropUnsupportedFormat = "unsupported_format"
	DropSizeMismatch      = "size_mismatch"
	DropOverwritten       = "overwritten"
	DropSurfaceGone       = "surface_gone"
	DropPostRejected      = "post_rejected"
)

// FrameDelivered is published after a surface accepted a frame.
type FrameDelivered struct {
	Seq   uint64
	Bytes int
	// Latency is capture timestamp to SetVideoFrame.
	Latency time.Duration
}

// Type returns the event type identifier for FrameDelivered.
func (e FrameDelivered) Type() uint32 { return TypeFrameDelivered }

// PipelineError is published when the capture runtime reports an error
// after it reached the playing state.
type PipelineError struct {
	Category string
	Message  string
}

// Type returns the event type identifier for PipelineError.
func (e PipelineError) Type() uint32 { return TypePipelineError }
