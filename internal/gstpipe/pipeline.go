//go:build cgo

package gstpipe

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/e7canasta/camview"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

var initOnce sync.Once

// elements holds the four linked stages. Only the pipeline and sink are
// needed after Link; the rest are kept for logging and tests.
type elements struct {
	pipeline *gst.Pipeline
	source   *gst.Element
	convert  *gst.Element
	filter   *gst.Element
	sink     *app.Sink
}

// createPipeline builds
//
//	v4l2src → videoconvert → capsfilter(RGB, W×H) → appsink
//
// and leaves it in NULL.
//
// This function:
//  1. Initializes GStreamer once per process
//  2. Checks the device node exists before creating any element
//  3. Creates each element and sets its properties
//  4. Configures the appsink to keep only the newest buffer
//  5. Adds the elements to the pipeline and links them in order
//
// Each stage failure is reported as a camview.StageError naming the stage.
func createPipeline(spec camview.StageSpec, logger *slog.Logger) (*elements, error) {
	initOnce.Do(func() { gst.Init(nil) })

	if spec.DevicePath != "" {
		if _, err := os.Stat(spec.DevicePath); err != nil {
			return nil, &camview.StageError{Stage: camview.StageSource, Err: err}
		}
	}

	pipeline, err := gst.NewPipeline("camview")
	if err != nil {
		return nil, &camview.StageError{Stage: "graph", Err: fmt.Errorf("create pipeline: %w", err)}
	}

	source, err := gst.NewElementWithName("v4l2src", camview.StageSource)
	if err != nil {
		return nil, &camview.StageError{Stage: camview.StageSource, Err: fmt.Errorf("create v4l2src: %w", err)}
	}
	if spec.DevicePath != "" {
		if err := source.SetProperty("device", spec.DevicePath); err != nil {
			return nil, &camview.StageError{Stage: camview.StageSource, Err: fmt.Errorf("set device: %w", err)}
		}
	}

	convert, err := gst.NewElementWithName("videoconvert", camview.StageConvert)
	if err != nil {
		return nil, &camview.StageError{Stage: camview.StageConvert, Err: fmt.Errorf("create videoconvert: %w", err)}
	}

	filter, err := gst.NewElementWithName("capsfilter", camview.StageFilter)
	if err != nil {
		return nil, &camview.StageError{Stage: camview.StageFilter, Err: fmt.Errorf("create capsfilter: %w", err)}
	}
	caps := gst.NewCapsFromString(spec.Caps())
	if caps == nil {
		return nil, &camview.StageError{Stage: camview.StageFilter, Err: fmt.Errorf("invalid caps %q", spec.Caps())}
	}
	if err := filter.SetProperty("caps", caps); err != nil {
		return nil, &camview.StageError{Stage: camview.StageFilter, Err: fmt.Errorf("set caps: %w", err)}
	}

	sink, err := app.NewAppSink()
	if err != nil {
		return nil, &camview.StageError{Stage: camview.StageSink, Err: fmt.Errorf("create appsink: %w", err)}
	}
	sink.SetProperty("sync", false)    // render as fast as frames arrive
	sink.SetProperty("max-buffers", 1) // newest frame only
	sink.SetProperty("drop", true)
	sink.SetCaps(gst.NewCapsFromString(spec.Caps()))

	if err := pipeline.AddMany(source, convert, filter, sink.Element); err != nil {
		return nil, &camview.StageError{Stage: "graph", Err: fmt.Errorf("add elements: %w", err)}
	}

	links := []struct {
		stage    string
		src, dst *gst.Element
	}{
		{camview.StageSource, source, convert},
		{camview.StageConvert, convert, filter},
		{camview.StageFilter, filter, sink.Element},
	}
	for _, l := range links {
		if err := l.src.Link(l.dst); err != nil {
			return nil, &camview.StageError{Stage: l.stage, Err: fmt.Errorf("link %s: %w", l.stage, err)}
		}
	}

	logger.Debug("gstpipe: pipeline created",
		"device", spec.DevicePath,
		"caps", spec.Caps(),
	)

	return &elements{
		pipeline: pipeline,
		source:   source,
		convert:  convert,
		filter:   filter,
		sink:     sink,
	}, nil
}

// destroyPipeline sets the pipeline to NULL, which joins the streaming
// thread. Safe with nil.
func destroyPipeline(e *elements) error {
	if e == nil || e.pipeline == nil {
		return nil
	}
	if err := e.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("set pipeline to NULL: %w", err)
	}
	return nil
}
