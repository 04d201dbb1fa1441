package tracking

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/focus.overlay/internal/geom"
)

func TestAdvance_StationaryTrackIsStable(t *testing.T) {
	t.Parallel()
	tr := newTestTracker(t)
	tr.Ingest([]Detection{det("person", 0.9, 0.1, 0.1, 0.2, 0.2)}, t0)

	advanceN(tr, 30, 16*time.Millisecond)

	trk := tr.Store().Get("obj_1")
	assert.InDelta(t, 0.1, trk.Smoothed.X, 1e-12)
	assert.InDelta(t, 0.1, trk.Smoothed.Y, 1e-12)
	assert.InDelta(t, 0.2, trk.Smoothed.W, 1e-12)
}

func TestAdvance_CorrectionStep(t *testing.T) {
	t.Parallel()
	tr := newTestTracker(t)
	id := tr.AddTrack(&Track{
		Class:    "car",
		Box:      geom.Box{X: 0.6, Y: 0.2, W: 0.3, H: 0.1},
		Smoothed: geom.Box{X: 0.2, Y: 0.2, W: 0.1, H: 0.1},
		VX:       0.5,
	})

	tr.Advance(100 * time.Millisecond)

	trk := tr.Store().Get(id)
	predX := 0.2 + 0.5*0.1
	assert.InDelta(t, predX*0.85+0.6*0.15, trk.Smoothed.X, 1e-12)
	assert.InDelta(t, 0.2, trk.Smoothed.Y, 1e-12)
	assert.InDelta(t, 0.1*0.85+0.3*0.15, trk.Smoothed.W, 1e-12)
	assert.InDelta(t, 0.1, trk.Smoothed.H, 1e-12)
}

func TestAdvance_ConvergesWithoutOvershoot(t *testing.T) {
	t.Parallel()
	tr := newTestTracker(t)
	id := tr.AddTrack(&Track{
		Class:    "car",
		Box:      geom.Box{X: 0.7, Y: 0.6, W: 0.2, H: 0.3},
		Smoothed: geom.Box{X: 0.1, Y: 0.1, W: 0.05, H: 0.05},
	})

	trk := tr.Store().Get(id)
	prevGap := math.Abs(trk.Box.X - trk.Smoothed.X)
	for i := range 120 {
		tr.Advance(16 * time.Millisecond)
		gap := math.Abs(trk.Box.X - trk.Smoothed.X)
		require.LessOrEqual(t, gap, prevGap, "tick %d", i)
		require.LessOrEqual(t, trk.Smoothed.X, trk.Box.X, "tick %d overshoot", i)
		require.LessOrEqual(t, trk.Smoothed.H, trk.Box.H, "tick %d overshoot", i)
		prevGap = gap
	}
	assert.InDelta(t, 0.7, trk.Smoothed.X, 1e-6)
	assert.InDelta(t, 0.3, trk.Smoothed.H, 1e-6)
}

func TestAdvance_DepthEstimate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		box        geom.Box
		wantFactor float64
		wantDepth  float64
	}{
		// sqrt(0.04)*0.7 + (0.3+0.2)*0.3 = 0.14 + 0.15 = 0.29; 2/0.29 = 6.897 -> 6.9
		{"medium box", geom.Box{X: 0.4, Y: 0.3, W: 0.2, H: 0.2}, 0.29, 6.9},
		{"tiny far box clamps to floor", geom.Box{X: 0.5, Y: 0.0, W: 0.001, H: 0.001}, 0.1, 20},
		{"huge near box clamps to one", geom.Box{X: 0, Y: 0.5, W: 1, H: 1}, 1.0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTracker(t)
			id := tr.AddTrack(&Track{Class: "car", Box: tt.box, Smoothed: tt.box})
			tr.Advance(16 * time.Millisecond)
			trk := tr.Store().Get(id)
			assert.InDelta(t, tt.wantFactor, trk.DistanceFactor, 1e-9)
			assert.InDelta(t, tt.wantDepth, trk.DepthMeters, 1e-9)
			assert.GreaterOrEqual(t, trk.DepthMeters, 0.5)
		})
	}
}

func TestAdvance_NegativeDtIsIgnored(t *testing.T) {
	t.Parallel()
	tr := newTestTracker(t)
	tr.Ingest([]Detection{centred()}, t0)

	fired := tr.Advance(-time.Second)

	assert.Empty(t, fired)
	assert.Zero(t, tr.Store().Get("obj_1").FocusProgress)
}

func TestAdvance_SegmentPointsStayInUnitBox(t *testing.T) {
	t.Parallel()
	tr := newTestTracker(t)
	tr.Ingest([]Detection{centred()}, t0)

	fired := advanceN(tr, 16, 10*time.Millisecond)
	require.Len(t, fired, 1)
	trk := tr.Store().Get("obj_1")
	require.Len(t, trk.SegmentPoints, 4)

	start := append([]SegmentPoint(nil), trk.SegmentPoints...)
	advanceN(tr, 2000, 10*time.Millisecond)

	moved := false
	for i, p := range trk.SegmentPoints {
		assert.True(t, p.X >= 0 && p.X <= 1, "point %d x=%f", i, p.X)
		assert.True(t, p.Y >= 0 && p.Y <= 1, "point %d y=%f", i, p.Y)
		assert.True(t, p.Active)
		if p.X != start[i].X || p.Y != start[i].Y {
			moved = true
		}
	}
	assert.True(t, moved, "segment points should animate once analysis has started")
}

func TestAdvance_SegmentPointsIdleWithoutAnalysis(t *testing.T) {
	t.Parallel()
	tr := newTestTracker(t)
	id := tr.AddTrack(&Track{
		Class:         "car",
		Box:           geom.Box{X: 0, Y: 0, W: 0.1, H: 0.1},
		Smoothed:      geom.Box{X: 0, Y: 0, W: 0.1, H: 0.1},
		SegmentPoints: []SegmentPoint{{X: 0.5, Y: 0.5, VX: 0.4, VY: 0.4, Active: true}},
	})

	tr.Advance(16 * time.Millisecond)

	assert.Equal(t, 0.5, tr.Store().Get(id).SegmentPoints[0].X)
}

func TestJitterMetrics(t *testing.T) {
	t.Parallel()
	tr := newTestTracker(t)
	tr.Ingest([]Detection{det("person", 0.9, 0.1, 0.1, 0.2, 0.2)}, t0)
	id := tr.AddTrack(&Track{
		Class:    "car",
		Box:      geom.Box{X: 0.7, Y: 0.1, W: 0.2, H: 0.2},
		Smoothed: geom.Box{X: 0.1, Y: 0.1, W: 0.2, H: 0.2},
	})

	advanceN(tr, 10, 16*time.Millisecond)

	metrics := tr.JitterMetrics()
	require.Len(t, metrics, 2)
	assert.Equal(t, "obj_1", metrics[0].TrackID)
	assert.Equal(t, 10, metrics[0].Samples)
	assert.InDelta(t, 0, metrics[0].RMS, 1e-12)

	assert.Equal(t, id, metrics[1].TrackID)
	assert.Greater(t, metrics[1].Mean, 0.0)
	assert.Greater(t, metrics[1].RMS, 0.0)
	// Displacement shrinks geometrically while converging.
	assert.Greater(t, metrics[1].StdDev, 0.0)

	snap := tr.Snapshot(t0)
	v, ok := snap.Track(id)
	require.True(t, ok)
	assert.InDelta(t, metrics[1].RMS, v.JitterRMS, 1e-12)
}

func TestMotionRMS(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, motionRMS(nil))
	assert.InDelta(t, math.Sqrt((9.0+16.0)/2), motionRMS([]float64{3, 4}), 1e-12)
}
