//go:build cgo

package gstpipe

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/e7canasta/camview"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// sampleContext is the state shared with the appsink callback.
type sampleContext struct {
	handler camview.SampleFunc
	seq     *uint64
	bytes   *uint64
	empty   *uint64
	logger  *slog.Logger

	// Fallbacks when the sample carries no caps.
	width, height int
}

// onNewSample is the appsink new-sample callback. It runs on the GStreamer
// streaming thread.
//
// This callback:
//  1. Pulls the sample from the appsink
//  2. Reads format and size from the sample caps, falling back to the
//     configured geometry
//  3. Maps the buffer read-only and counts its bytes
//  4. Derives the row stride from the mapped length
//  5. Hands a RawFrame over the mapped memory to the handler
//  6. Unmaps the buffer once the handler returns
//
// The handler must copy what it keeps. Always returns gst.FlowOK: a bad
// sample is skipped, never fatal.
func onNewSample(sink *app.Sink, sc *sampleContext) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		sc.logger.Warn("gstpipe: failed to pull sample from appsink, skipping frame")
		atomic.AddUint64(sc.empty, 1)
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		sc.logger.Warn("gstpipe: sample without buffer, skipping frame")
		atomic.AddUint64(sc.empty, 1)
		return gst.FlowOK
	}

	format, width, height := describeCaps(sample.GetCaps(), sc.width, sc.height)

	mapInfo := buffer.Map(gst.MapRead)
	if mapInfo == nil {
		sc.logger.Warn("gstpipe: failed to map buffer, skipping frame")
		atomic.AddUint64(sc.empty, 1)
		return gst.FlowOK
	}
	defer buffer.Unmap()

	data := mapInfo.Bytes()
	if len(data) == 0 {
		sc.logger.Warn("gstpipe: empty buffer received")
		atomic.AddUint64(sc.empty, 1)
		return gst.FlowOK
	}

	atomic.AddUint64(sc.bytes, uint64(len(data)))

	frame := camview.RawFrame{
		Data:      data,
		Width:     width,
		Height:    height,
		Stride:    strideFor(format, width, height, len(data)),
		Format:    format,
		Seq:       atomic.AddUint64(sc.seq, 1),
		Timestamp: time.Now(),
	}

	if sc.handler != nil {
		sc.handler(frame)
	}
	return gst.FlowOK
}

// describeCaps reads format and size from the negotiated caps.
func describeCaps(caps *gst.Caps, width, height int) (camview.FrameFormat, int, int) {
	if caps == nil || caps.GetSize() == 0 {
		return camview.FormatUnknown, width, height
	}
	structure := caps.GetStructureAt(0)
	if structure == nil {
		return camview.FormatUnknown, width, height
	}

	format := camview.FormatUnknown
	if structure.Name() == "image/jpeg" {
		format = camview.FormatMJPEG
	} else if val, err := structure.GetValue("format"); err == nil {
		if name, ok := val.(string); ok {
			format = camview.ParseFrameFormat(name)
		}
	}

	if val, err := structure.GetValue("width"); err == nil {
		if w, ok := val.(int); ok {
			width = w
		}
	}
	if val, err := structure.GetValue("height"); err == nil {
		if h, ok := val.(int); ok {
			height = h
		}
	}
	return format, width, height
}
