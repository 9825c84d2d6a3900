// Package metrics exports camview events as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/e7canasta/camview/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "camview"

// Collectors holds the camview metrics on a private registry.
type Collectors struct {
	registry *prometheus.Registry

	framesDelivered prometheus.Counter
	framesDropped   *prometheus.CounterVec
	deliveryLatency prometheus.Histogram
	frameBytes      prometheus.Gauge
	pipelinePlaying *prometheus.GaugeVec
	pipelineErrors  *prometheus.CounterVec
	bridgeFPS       prometheus.Gauge
}

// New creates the collectors. Go runtime and process metrics are included.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collectors{
		registry: reg,
		framesDelivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "frames_delivered_total",
			Help:      "Frames handed to the display surface",
		}),
		framesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped before reaching the display surface",
		}, []string{"reason"}),
		deliveryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "delivery_latency_seconds",
			Help:      "Time from capture callback to SetVideoFrame",
			Buckets:   []float64{.001, .0025, .005, .01, .02, .033, .05, .1, .25},
		}),
		frameBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "frame_bytes",
			Help:      "Size of the last delivered frame",
		}),
		pipelinePlaying: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "playing",
			Help:      "1 while the capture graph is playing",
		}, []string{"device"}),
		pipelineErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "errors_total",
			Help:      "Errors posted by the capture runtime",
		}, []string{"category"}),
		bridgeFPS: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "delivered_fps",
			Help:      "Mean delivered frame rate over the recent window",
		}),
	}
}

// Attach subscribes the collectors to bus. The returned function unsubscribes.
func (c *Collectors) Attach(bus *events.Bus) func() {
	unsubs := []func(){
		events.Subscribe(bus, func(ev events.FrameDelivered) {
			c.framesDelivered.Inc()
			c.frameBytes.Set(float64(ev.Bytes))
			if ev.Latency > 0 {
				c.deliveryLatency.Observe(ev.Latency.Seconds())
			}
		}),
		events.Subscribe(bus, func(ev events.FrameDropped) {
			c.framesDropped.WithLabelValues(ev.Reason).Inc()
		}),
		events.Subscribe(bus, func(ev events.StateChanged) {
			v := 0.0
			if ev.To == "playing" {
				v = 1
			}
			c.pipelinePlaying.WithLabelValues(ev.Device).Set(v)
		}),
		events.Subscribe(bus, func(ev events.PipelineError) {
			c.pipelineErrors.WithLabelValues(ev.Category).Inc()
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// SetFPS records the delivered frame rate. Called by the periodic stats reporter.
func (c *Collectors) SetFPS(fps float64) {
	c.bridgeFPS.Set(fps)
}

// Handler returns the /metrics HTTP handler.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collectors) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("camview: metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
