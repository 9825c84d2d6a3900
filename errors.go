package camview

import (
	"errors"
	"fmt"
)

// ErrSurfaceGone is the dispatch outcome when the target surface has been
// destroyed before a pending frame reached it. Expected during shutdown.
var ErrSurfaceGone = errors.New("camview: display surface no longer registered")

// GraphConstructionError reports a pipeline stage that could not be created
// or linked. Fatal at startup.
type GraphConstructionError struct {
	// Stage is the stage name ("source", "convert", "filter", "sink") or
	// "graph" when the failure is not tied to one stage.
	Stage string
	Err   error
}

func (e *GraphConstructionError) Error() string {
	return fmt.Sprintf("camview: build %s stage: %v", e.Stage, e.Err)
}

func (e *GraphConstructionError) Unwrap() error { return e.Err }

// StateTransitionError reports a failed lifecycle transition, typically the
// device refusing to open or caps negotiation being rejected. Fatal at startup.
type StateTransitionError struct {
	From PipelineState
	To   PipelineState
	Err  error
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("camview: transition %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *StateTransitionError) Unwrap() error { return e.Err }

// ConversionErrorKind classifies per-frame conversion failures.
type ConversionErrorKind int

const (
	// UnsupportedFormat: the frame declares a format other than FormatRGB.
	UnsupportedFormat ConversionErrorKind = iota + 1
	// SizeMismatch: declared dimensions and stride disagree with the data length.
	SizeMismatch
)

// String returns the kind label used in logs and metrics.
func (k ConversionErrorKind) String() string {
	switch k {
	case UnsupportedFormat:
		return "unsupported_format"
	case SizeMismatch:
		return "size_mismatch"
	default:
		return "unknown"
	}
}

// ConversionError is a per-frame, non-fatal failure. The frame is dropped.
type ConversionError struct {
	Kind   ConversionErrorKind
	Format FrameFormat

	// Set for SizeMismatch.
	Width, Height, Stride int
	Expected, Actual      int
}

func (e *ConversionError) Error() string {
	switch e.Kind {
	case UnsupportedFormat:
		return fmt.Sprintf("camview: unsupported frame format %s (want %s)", e.Format, FormatRGB)
	case SizeMismatch:
		return fmt.Sprintf("camview: frame size mismatch for %dx%d stride %d: expected %d bytes, got %d",
			e.Width, e.Height, e.Stride, e.Expected, e.Actual)
	default:
		return "camview: frame conversion failed"
	}
}

// Is lets errors.Is match on kind: errors.Is(err, &ConversionError{Kind: SizeMismatch}).
func (e *ConversionError) Is(target error) bool {
	t, ok := target.(*ConversionError)
	if !ok {
		return false
	}
	return t.Kind == 0 || t.Kind == e.Kind
}
