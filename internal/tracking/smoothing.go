package tracking

import (
	"math"
	"time"

	"github.com/banshee-data/focus.overlay/internal/geom"
)

// motionWindow bounds the per-track displacement history used for jitter.
const motionWindow = 120

// Advance runs one render tick over every track: predict/correct smoothing,
// depth estimation, segment animation, and the focus state machine.
// It returns the analysis requests fired speculatively during this tick;
// the caller dispatches them out of line and feeds completions back through
// ApplyAnalysis.
func (t *Tracker) Advance(dt time.Duration) []AnalysisRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	secs := dt.Seconds()
	if secs < 0 || math.IsNaN(secs) {
		secs = 0
	}

	var fired []AnalysisRequest
	t.store.ForEach(func(tr *Track) {
		t.smooth(tr, secs)
		estimateDepth(tr)
		t.animateSegments(tr)
		if req, ok := t.focus(tr, secs); ok {
			fired = append(fired, req)
		}
	})
	return fired
}

// smooth is a constant-gain predict/correct step: dead-reckon the smoothed
// position by the raw velocity, then pull it toward the raw target.
func (t *Tracker) smooth(tr *Track, dt float64) {
	k := t.Config.SmoothingFactor
	prevX, prevY := tr.Smoothed.Center()

	predX := tr.Smoothed.X + tr.VX*dt
	predY := tr.Smoothed.Y + tr.VY*dt
	tr.Smoothed = geom.Box{
		X: geom.Lerp(predX, tr.Box.X, k),
		Y: geom.Lerp(predY, tr.Box.Y, k),
		W: geom.Lerp(tr.Smoothed.W, tr.Box.W, k),
		H: geom.Lerp(tr.Smoothed.H, tr.Box.H, k),
	}

	cx, cy := tr.Smoothed.Center()
	tr.motion = append(tr.motion, geom.Distance(prevX, prevY, cx, cy))
	if len(tr.motion) > motionWindow {
		tr.motion = tr.motion[len(tr.motion)-motionWindow:]
	}
}

// estimateDepth derives an approximate range from apparent size and vertical
// position. It is monotonic in both but not physically calibrated.
func estimateDepth(tr *Track) {
	area := tr.Smoothed.W * tr.Smoothed.H
	if area < 0 {
		area = 0
	}
	yFactor := tr.Smoothed.Y + tr.Smoothed.H
	tr.DistanceFactor = geom.Clamp(math.Sqrt(area)*0.7+yFactor*0.3, 0.1, 1.0)
	tr.DepthMeters = math.Max(0.5, math.Round((1/tr.DistanceFactor)*2*10)/10)
}

// animateSegments drifts the decorative points of tracks under analysis,
// reflecting them off the unit box.
func (t *Tracker) animateSegments(tr *Track) {
	if len(tr.SegmentPoints) == 0 || !(tr.IsAnalyzed || tr.IsAnalysisPending) {
		return
	}
	step := t.Config.SegmentPointStep
	for i := range tr.SegmentPoints {
		p := &tr.SegmentPoints[i]
		p.X, p.VX = reflect(p.X+p.VX*step, p.VX)
		p.Y, p.VY = reflect(p.Y+p.VY*step, p.VY)
	}
}

func reflect(pos, vel float64) (float64, float64) {
	switch {
	case pos < 0:
		return geom.Clamp(-pos, 0, 1), -vel
	case pos > 1:
		return geom.Clamp(2-pos, 0, 1), -vel
	}
	return pos, vel
}
