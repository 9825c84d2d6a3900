package camview

import (
	"fmt"
	"strings"
	"time"
)

// FrameFormat is the pixel layout a runtime declares for a raw frame.
type FrameFormat int

const (
	FormatUnknown FrameFormat = iota
	// FormatRGB is packed 8-bit R,G,B. The only format the converter accepts.
	FormatRGB
	FormatRGBx
	FormatBGR
	FormatBGRx
	FormatRGBA
	FormatYUY2
	FormatNV12
	FormatI420
	FormatMJPEG
)

var formatNames = map[FrameFormat]string{
	FormatUnknown: "unknown",
	FormatRGB:     "RGB",
	FormatRGBx:    "RGBx",
	FormatBGR:     "BGR",
	FormatBGRx:    "BGRx",
	FormatRGBA:    "RGBA",
	FormatYUY2:    "YUY2",
	FormatNV12:    "NV12",
	FormatI420:    "I420",
	FormatMJPEG:   "MJPG",
}

// String returns the GStreamer caps name of the format.
func (f FrameFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FrameFormat(%d)", int(f))
}

// BytesPerPixel returns the packed pixel size, or 0 for planar and
// compressed formats.
func (f FrameFormat) BytesPerPixel() int {
	switch f {
	case FormatRGB, FormatBGR:
		return 3
	case FormatRGBx, FormatBGRx, FormatRGBA:
		return 4
	case FormatYUY2:
		return 2
	default:
		return 0
	}
}

// ParseFrameFormat maps a GStreamer caps format name to a FrameFormat.
// Unrecognised names yield FormatUnknown.
func ParseFrameFormat(name string) FrameFormat {
	for f, n := range formatNames {
		if f != FormatUnknown && strings.EqualFold(n, name) {
			return f
		}
	}
	if strings.EqualFold(name, "MJPEG") || strings.EqualFold(name, "image/jpeg") {
		return FormatMJPEG
	}
	return FormatUnknown
}

// RawFrame is one sample as handed over by a capture runtime.
//
// Data is only valid for the duration of the callback that received it.
// Implementations must copy whatever they need before returning.
type RawFrame struct {
	Data   []byte
	Width  int
	Height int
	// Stride is the row pitch in bytes. Zero means tightly packed.
	Stride int
	Format FrameFormat

	// Seq is assigned by the runtime, starting at 1.
	Seq       uint64
	Timestamp time.Time
}

// PixelBuffer is an owned, tightly packed RGB image ready for a DisplaySurface.
// len(Data) is always Width*Height*3.
type PixelBuffer struct {
	Data   []byte
	Width  int
	Height int

	Seq       uint64
	Timestamp time.Time
}

// RGBA expands the buffer to 4 bytes per pixel with opaque alpha, reusing dst
// when it has the right length.
func (b PixelBuffer) RGBA(dst []byte) []byte {
	n := b.Width * b.Height
	if len(dst) != n*4 {
		dst = make([]byte, n*4)
	}
	for i, j := 0, 0; i < n; i, j = i+1, j+3 {
		dst[i*4] = b.Data[j]
		dst[i*4+1] = b.Data[j+1]
		dst[i*4+2] = b.Data[j+2]
		dst[i*4+3] = 0xff
	}
	return dst
}

// PipelineState is the lifecycle state of a CaptureGraph.
type PipelineState int

const (
	StateNull PipelineState = iota
	StateReady
	StatePaused
	StatePlaying
)

// String returns a human-readable state name.
func (s PipelineState) String() string {
	switch s {
	case StateNull:
		return "null"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// WindowGeometry is the window size snapshot taken once at startup. It fixes
// the negotiated capture resolution for the whole session.
type WindowGeometry struct {
	Width  int
	Height int
}

// Validate rejects non-positive dimensions.
func (g WindowGeometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid geometry %dx%d", g.Width, g.Height)
	}
	return nil
}

// String returns "WxH".
func (g WindowGeometry) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

// FrameBytes is the PixelBuffer size for this geometry.
func (g WindowGeometry) FrameBytes() int {
	return g.Width * g.Height * FormatRGB.BytesPerPixel()
}

// DisplaySurface renders converted frames. SetVideoFrame is only ever called
// from the UI goroutine and must not block.
type DisplaySurface interface {
	SetVideoFrame(buf PixelBuffer)
}

// Dispatcher enqueues a task onto the UI goroutine's event queue.
//
// Post must return immediately. It reports false when the task was not
// accepted (queue closed or full); the task is then never run.
type Dispatcher interface {
	Post(task func()) bool
}

// SampleHandler receives every sample on the capture thread.
type SampleHandler interface {
	OnSample(frame RawFrame)
}

// SampleFunc adapts a function to SampleHandler.
type SampleFunc func(frame RawFrame)

// OnSample calls f(frame).
func (f SampleFunc) OnSample(frame RawFrame) { f(frame) }
