//go:build cgo

package gstpipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/e7canasta/camview/internal/events"
	"github.com/tinyzimmer/go-gst/gst"
)

// busPollInterval keeps shutdown responsive while polling the bus.
const busPollInterval = 50 * time.Millisecond

// waitPlaying blocks until the pipeline reaches PLAYING.
//
// This function:
//  1. Polls the pipeline bus every busPollInterval
//  2. Returns a classified *PipelineError on the first error message
//  3. Fails on end of stream, since no frame can arrive after it
//  4. Returns nil once the pipeline itself reports PLAYING
//
// A cancelled ctx ends the wait with ctx.Err() wrapped.
func waitPlaying(ctx context.Context, pipeline *gst.Pipeline) error {
	bus := pipeline.GetPipelineBus()

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("waiting for PLAYING: %w", err)
		}

		msg := bus.TimedPop(busPollInterval)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageError:
			gerr := msg.ParseError()
			category := ClassifyError(gerr.Error(), gerr.DebugString())
			return &PipelineError{Category: category, Message: gerr.Error(), Debug: gerr.DebugString()}

		case gst.MessageEOS:
			return errors.New("end of stream before PLAYING")

		case gst.MessageStateChanged:
			if msg.Source() != pipeline.GetName() {
				continue
			}
			if _, newState := msg.ParseStateChanged(); newState == gst.StatePlaying {
				return nil
			}
		}
	}
}

// monitorBus watches the pipeline bus after startup.
//
// This function:
//  1. Polls the bus every busPollInterval until ctx is cancelled
//  2. Logs errors with their category and publishes events.PipelineError
//  3. Reports end of stream as a device error
//  4. Logs warnings and pipeline state changes
//
// Errors are not retried. The graph stays as it is and the window keeps
// the last delivered frame.
func monitorBus(ctx context.Context, pipeline *gst.Pipeline, bus *events.Bus, logger *slog.Logger, device string) {
	gbus := pipeline.GetPipelineBus()
	startedAt := time.Now()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("gstpipe: context cancelled, stopping bus monitor")
			return
		default:
		}

		msg := gbus.TimedPop(busPollInterval)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			logger.Info("gstpipe: end of stream", "device", device, "uptime", time.Since(startedAt))
			events.Publish(bus, events.PipelineError{Category: CategoryDevice.String(), Message: "end of stream"})

		case gst.MessageError:
			gerr := msg.ParseError()
			category := ClassifyError(gerr.Error(), gerr.DebugString())

			logger.Error("gstpipe: pipeline error",
				"error", gerr.Error(),
				"debug", gerr.DebugString(),
				"category", category.String(),
				"device", device,
				"uptime", time.Since(startedAt),
			)
			events.Publish(bus, events.PipelineError{Category: category.String(), Message: gerr.Error()})

		case gst.MessageWarning:
			gerr := msg.ParseWarning()
			logger.Warn("gstpipe: pipeline warning", "warning", gerr.Error(), "device", device)

		case gst.MessageStateChanged:
			if msg.Source() == pipeline.GetName() {
				old, newState := msg.ParseStateChanged()
				logger.Debug("gstpipe: pipeline state changed", "from", old, "to", newState)
			}
		}
	}
}
