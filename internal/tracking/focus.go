package tracking

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/banshee-data/focus.overlay/internal/geom"
)

// focusEpsilon absorbs float accumulation error so that threshold/dt ticks
// of exactly dt land on the threshold.
const focusEpsilon = 1e-6

// segmentSeeds are the initial box-relative positions of segment points.
var segmentSeeds = [][2]float64{{0.5, 0.5}, {0.3, 0.4}, {0.7, 0.6}, {0.5, 0.8}}

// focus advances the dwell state machine for one track. It reports the
// analysis request when the speculative trigger fires on this tick.
func (t *Tracker) focus(tr *Track, dt float64) (AnalysisRequest, bool) {
	threshold := t.Config.DwellThresholdMs
	cx, cy := tr.Smoothed.Center()
	inZone := geom.Distance(cx, cy, 0.5, 0.5) < t.Config.FocusRadius

	if !inZone {
		tr.FocusProgress = max(0, tr.FocusProgress-dt*t.Config.FocusDecayRate)
		if tr.FocusProgress == 0 {
			tr.firedThisDwell = false
		}
		return AnalysisRequest{}, false
	}

	tr.FocusProgress = min(threshold, tr.FocusProgress+dt*t.Config.FocusGainRate)
	if threshold-tr.FocusProgress < focusEpsilon {
		tr.FocusProgress = threshold
	}

	var req AnalysisRequest
	fired := false

	// Fire early so the analysis round-trip overlaps the rest of the dwell.
	if tr.FocusProgress > threshold*t.Config.SpeculativeFraction &&
		!tr.IsAnalyzed && !tr.IsAnalysisPending && !tr.firedThisDwell {
		req = t.fire(tr)
		fired = true
	}

	// The visual lock never waits for the analysis result.
	if tr.FocusProgress >= threshold && !tr.IsAnalyzed {
		tr.IsAnalyzed = true
		if tr.Description == "" {
			tr.Description = PlaceholderDescription
			tr.Color = ColorDecrypting
		}
		trackLog.Diagf("locked %s label=%s pending=%t", tr.ID, tr.Label, tr.IsAnalysisPending)
	}
	return req, fired
}

func (t *Tracker) fire(tr *Track) AnalysisRequest {
	tr.IsAnalysisPending = true
	tr.firedThisDwell = true
	tr.SegmentPoints = make([]SegmentPoint, len(segmentSeeds))
	for i, s := range segmentSeeds {
		tr.SegmentPoints[i] = SegmentPoint{
			X:      s[0],
			Y:      s[1],
			VX:     t.rng.Float64() - 0.5,
			VY:     t.rng.Float64() - 0.5,
			Active: true,
		}
	}
	t.stats.AnalysesFired++
	trackLog.Diagf("analysis fired %s class=%s progress=%.0fms", tr.ID, tr.Class, tr.FocusProgress)
	return AnalysisRequest{
		TrackID: tr.ID,
		Class:   tr.Class,
		Label:   tr.Label,
		Score:   tr.Score,
		Box:     tr.Box,
	}
}

// ApplyAnalysis reconciles a completed analysis with the track it was fired
// for. Lookup is by identity only; a result for a track that no longer
// exists is discarded and false is returned.
func (t *Tracker) ApplyAnalysis(res AnalysisResult) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr := t.store.Get(res.TrackID)
	if tr == nil {
		t.stats.AnalysesDiscarded++
		trackLog.Diagf("analysis result for %s discarded: track gone", res.TrackID)
		return false
	}
	tr.IsAnalysisPending = false

	if res.Err != nil {
		t.stats.AnalysesFailed++
		if !tr.IsAiAttached {
			tr.Description = FailureDescription
		}
		trackLog.Opsf("analysis failed for %s: %v", tr.ID, res.Err)
		return true
	}

	completed := res.CompletedAt
	if completed.IsZero() {
		completed = time.Now()
	}
	tr.LastAnalysisTime = completed
	t.stats.AnalysesApplied++

	// An attachment is authoritative over a late speculative result.
	if tr.IsAiAttached {
		trackLog.Diagf("analysis result for %s ignored: attached", tr.ID)
		return true
	}

	label, desc := ParseAnalysisText(res.Text, t.Config.DescriptionMaxLen)
	if label != "" {
		tr.Label = label
	}
	tr.Description = desc
	tr.Color = ColorResolved
	trackLog.Diagf("analysis applied %s label=%s", tr.ID, tr.Label)
	return true
}

// AbandonAnalysis clears the pending flag of a fired request that will never
// complete, for example when no analyzer is configured.
func (t *Tracker) AbandonAnalysis(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tr := t.store.Get(id); tr != nil {
		tr.IsAnalysisPending = false
	}
}

// ParseAnalysisText splits "LABEL | description" responses. Only the
// first two pipe-separated fields are used; anything after a second pipe
// is dropped. Without a pipe the whole text, truncated to maxLen runes,
// is the description and label is empty.
func ParseAnalysisText(raw string, maxLen int) (label, description string) {
	if parts := strings.Split(raw, "|"); len(parts) > 1 {
		return strings.ToUpper(strings.TrimSpace(parts[0])), strings.TrimSpace(parts[1])
	}
	if maxLen > 0 && utf8.RuneCountInString(raw) > maxLen {
		return "", string([]rune(raw)[:maxLen])
	}
	return "", raw
}
