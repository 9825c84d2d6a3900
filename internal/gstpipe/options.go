package gstpipe

import (
	"log/slog"

	"github.com/e7canasta/camview/internal/events"
)

// Name is the registered runtime name.
const Name = "gstreamer"

// Option configures a Runtime.
type Option func(*options)

type options struct {
	logger *slog.Logger
	bus    *events.Bus
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEvents publishes bus errors as events.PipelineError.
func WithEvents(bus *events.Bus) Option {
	return func(o *options) { o.bus = bus }
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
