package fpsstats

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

// generateFrameTimes produces n timestamps at targetFPS with uniform jitter
// of ±jitterFraction of the interval.
func generateFrameTimes(n int, targetFPS, jitterFraction float64, seed int64) []time.Time {
	rng := rand.New(rand.NewSource(seed))
	interval := time.Duration(float64(time.Second) / targetFPS)
	times := make([]time.Time, n)
	base := time.Unix(1_700_000_000, 0)
	for i := range n {
		offset := (rng.Float64()*2 - 1) * jitterFraction * float64(interval)
		times[i] = base.Add(time.Duration(i)*interval + time.Duration(offset))
	}
	return times
}

func TestCalculate_StabilityThresholds(t *testing.T) {
	t.Run("steady stream", func(t *testing.T) {
		stats := Calculate(generateFrameTimes(60, 30, 0, 1))
		if !stats.IsStable {
			t.Errorf("Expected stable stream, got IsStable=false (stddev=%.3f, jitter=%.5f)",
				stats.FPSStdDev, stats.JitterMean)
		}
		if math.Abs(stats.FPSMean-30) > 0.01 {
			t.Errorf("Expected FPSMean≈30, got %.3f", stats.FPSMean)
		}
	})

	t.Run("heavy jitter", func(t *testing.T) {
		stats := Calculate(generateFrameTimes(60, 30, 0.45, 2))
		if stats.IsStable {
			t.Errorf("Expected unstable stream, got IsStable=true (jitter %.2f%%)",
				stats.JitterMean*stats.FPSMean*100)
		}
	})
}

func TestCalculate_EdgeCases(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tests := []struct {
		name       string
		frameTimes []time.Time
		wantFrames int
		wantStable bool
	}{
		{"zero frames", nil, 0, false},
		{"one frame", []time.Time{now}, 1, false},
		{"two frames", []time.Time{now, now.Add(time.Second)}, 2, false},
		{"identical timestamps", []time.Time{now, now, now}, 3, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stats := Calculate(tc.frameTimes)
			if stats.Frames != tc.wantFrames {
				t.Errorf("Frames = %d, want %d", stats.Frames, tc.wantFrames)
			}
			if stats.IsStable != tc.wantStable {
				t.Errorf("IsStable = %v, want %v", stats.IsStable, tc.wantStable)
			}
			if math.IsNaN(stats.FPSMean) || math.IsInf(stats.FPSMean, 0) {
				t.Errorf("FPSMean not finite: %v", stats.FPSMean)
			}
		})
	}
}

func TestCalculate_MinLessThanOrEqualMax(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		stats := Calculate(generateFrameTimes(40, 15, 0.3, seed))
		if stats.FPSMin > stats.FPSMax {
			t.Fatalf("seed %d: FPSMin %.3f > FPSMax %.3f", seed, stats.FPSMin, stats.FPSMax)
		}
		if stats.JitterMean > stats.JitterMax {
			t.Fatalf("seed %d: JitterMean %.5f > JitterMax %.5f", seed, stats.JitterMean, stats.JitterMax)
		}
	}
}

func TestWindow_BoundedGrowth(t *testing.T) {
	w := NewWindow(8)
	base := time.Unix(1_700_000_000, 0)

	for i := range 50 {
		w.Add(base.Add(time.Duration(i) * 100 * time.Millisecond))
		if w.Len() > 8 {
			t.Fatalf("Len exceeded capacity at i=%d: %d", i, w.Len())
		}
	}

	snap := w.Snapshot()
	if len(snap) != 8 {
		t.Fatalf("Snapshot length = %d, want 8", len(snap))
	}
	for i := 1; i < len(snap); i++ {
		if !snap[i].After(snap[i-1]) {
			t.Fatalf("Snapshot not ordered at %d: %v !> %v", i, snap[i], snap[i-1])
		}
	}
	if want := base.Add(49 * 100 * time.Millisecond); !snap[7].Equal(want) {
		t.Errorf("newest = %v, want %v", snap[7], want)
	}

	stats := w.Stats()
	if math.Abs(stats.FPSMean-10) > 0.01 {
		t.Errorf("FPSMean = %.3f, want 10", stats.FPSMean)
	}
}

func TestWindow_DefaultSize(t *testing.T) {
	w := NewWindow(0)
	if len(w.times) != DefaultWindowSize {
		t.Errorf("capacity = %d, want %d", len(w.times), DefaultWindowSize)
	}
}
