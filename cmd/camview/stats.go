package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/e7canasta/camview"
	"github.com/e7canasta/camview/internal/metrics"
)

// reportStats periodically logs bridge statistics and feeds the FPS gauge.
func reportStats(
	ctx context.Context,
	interval time.Duration,
	bridge *camview.FrameBridge,
	collectors *metrics.Collectors,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	startTime := time.Now()
	var last camview.BridgeStats

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := bridge.Stats()
			if collectors != nil {
				collectors.SetFPS(stats.FPS.FPSMean)
			}
			logLiveStats(logger, time.Since(startTime), stats, last)
			last = stats
		}
	}
}

// logLiveStats logs totals plus what changed since the previous report.
func logLiveStats(logger *slog.Logger, uptime time.Duration, stats, last camview.BridgeStats) {
	var dropRate float64
	if stats.Received > 0 {
		dropRate = float64(stats.Dropped()) / float64(stats.Received) * 100
	}

	logger.Info("camview: live stats",
		"uptime", uptime.Round(time.Second),
		"received", stats.Received,
		"delivered", stats.Delivered,
		"delivered_delta", stats.Delivered-last.Delivered,
		"dropped", stats.Dropped(),
		"drop_rate_pct", dropRate,
		"overwritten", stats.Overwritten,
		"unsupported_format", stats.UnsupportedFormat,
		"size_mismatch", stats.SizeMismatch,
		"fps", stats.FPS.FPSMean,
		"fps_stable", stats.FPS.IsStable,
	)

	if stats.Received > last.Received && stats.Delivered == last.Delivered {
		logger.Warn("camview: frames are arriving but none were delivered since last report",
			"received_delta", stats.Received-last.Received,
		)
	}
}
