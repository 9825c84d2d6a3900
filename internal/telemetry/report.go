package telemetry

import (
	"time"

	"github.com/e7canasta/camview"
	"github.com/vmihailenco/msgpack/v5"
)

// HealthReport is the msgpack payload published on the health topic.
type HealthReport struct {
	InstanceID string    `msgpack:"instance_id"`
	SessionID  string    `msgpack:"session_id"`
	Timestamp  time.Time `msgpack:"timestamp"`
	Device     string    `msgpack:"device"`
	State      string    `msgpack:"state"`
	UptimeS    float64   `msgpack:"uptime_s"`

	Received  uint64            `msgpack:"received"`
	Delivered uint64            `msgpack:"delivered"`
	Dropped   uint64            `msgpack:"dropped"`
	Drops     map[string]uint64 `msgpack:"drops"`

	FPSMean    float64 `msgpack:"fps_mean"`
	JitterMean float64 `msgpack:"jitter_mean_ms"`
	Stable     bool    `msgpack:"stable"`
}

// Snapshot is what the application samples for each report.
type Snapshot struct {
	Device    string
	State     camview.PipelineState
	StartedAt time.Time
	Bridge    camview.BridgeStats
}

// BuildReport turns a snapshot into a report stamped with now.
func BuildReport(instanceID, sessionID string, snap Snapshot, now time.Time) HealthReport {
	var uptime float64
	if !snap.StartedAt.IsZero() {
		uptime = now.Sub(snap.StartedAt).Seconds()
	}

	b := snap.Bridge
	return HealthReport{
		InstanceID: instanceID,
		SessionID:  sessionID,
		Timestamp:  now,
		Device:     snap.Device,
		State:      snap.State.String(),
		UptimeS:    uptime,
		Received:   b.Received,
		Delivered:  b.Delivered,
		Dropped:    b.Dropped(),
		Drops: map[string]uint64{
			"unsupported_format": b.UnsupportedFormat,
			"size_mismatch":      b.SizeMismatch,
			"overwritten":        b.Overwritten,
			"surface_gone":       b.SurfaceGone,
			"post_rejected":      b.PostRejected,
		},
		FPSMean:    b.FPS.FPSMean,
		JitterMean: b.FPS.JitterMean * 1000,
		Stable:     b.FPS.IsStable,
	}
}

// Encode marshals the report with msgpack.
func (r HealthReport) Encode() ([]byte, error) {
	return msgpack.Marshal(r)
}

// DecodeReport is the inverse of Encode.
func DecodeReport(data []byte) (HealthReport, error) {
	var r HealthReport
	err := msgpack.Unmarshal(data, &r)
	return r, err
}
