package gstpipe

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCGORequired is returned by every runtime operation in builds without cgo.
var ErrCGORequired = errors.New("gstpipe: GStreamer runtime requires cgo")

// Category classifies a pipeline error for logs and metrics.
type Category int

const (
	// CategoryDevice: the capture device is missing, busy or was unplugged.
	CategoryDevice Category = iota
	// CategoryNegotiation: caps could not be agreed between stages.
	CategoryNegotiation
	// CategoryPermission: the process may not open the device.
	CategoryPermission
	// CategoryUnknown: anything else.
	CategoryUnknown
)

func (c Category) String() string {
	switch c {
	case CategoryDevice:
		return "device"
	case CategoryNegotiation:
		return "negotiation"
	case CategoryPermission:
		return "permission"
	default:
		return "unknown"
	}
}

var (
	permissionKeywords = []string{
		"permission denied",
		"not permitted",
		"eacces",
		"eperm",
	}
	negotiationKeywords = []string{
		"not-negotiated",
		"not negotiated",
		"negotiation",
		"caps",
		"format",
		"could not map",
	}
	deviceKeywords = []string{
		"no such file",
		"no such device",
		"cannot identify device",
		"could not open device",
		"device or resource busy",
		"resource busy",
		"not a capture device",
		"v4l2",
		"/dev/video",
	}
)

// ClassifyError buckets a GStreamer error by its message and debug string.
// Permission is checked first: "could not open device ... permission denied"
// is a permission problem, not a missing device.
func ClassifyError(message, debug string) Category {
	combined := strings.ToLower(message + " " + debug)

	switch {
	case containsAny(combined, permissionKeywords):
		return CategoryPermission
	case containsAny(combined, negotiationKeywords):
		return CategoryNegotiation
	case containsAny(combined, deviceKeywords):
		return CategoryDevice
	default:
		return CategoryUnknown
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// PipelineError is an error message posted on the GStreamer bus.
type PipelineError struct {
	Category Category
	Message  string
	Debug    string
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("gstpipe: %s error: %s", e.Category, e.Message)
}
