//go:build !cgo

// Package gstpipe is the GStreamer capture runtime, registered as "gstreamer".
// This build has no cgo, so every operation fails with ErrCGORequired.
package gstpipe

import (
	"context"

	"github.com/e7canasta/camview"
)

func init() {
	camview.RegisterRuntime(Name, func() camview.Runtime { return New() })
}

// Runtime reports ErrCGORequired from every operation.
type Runtime struct {
	opts options
}

// Stats is a snapshot of sample counters.
type Stats struct {
	Samples      uint64
	BytesRead    uint64
	EmptySamples uint64
}

// New returns a runtime that cannot capture.
func New(opts ...Option) *Runtime {
	return &Runtime{opts: newOptions(opts)}
}

func (r *Runtime) Link(camview.StageSpec) error {
	return &camview.StageError{Stage: camview.StageSource, Err: ErrCGORequired}
}

func (r *Runtime) OnSample(camview.SampleFunc) {}

func (r *Runtime) Play(context.Context) error { return ErrCGORequired }

func (r *Runtime) Halt() error { return nil }

func (r *Runtime) Stats() Stats { return Stats{} }
