package tracking

import (
	"math"
	"time"

	"github.com/banshee-data/focus.overlay/internal/geom"
)

// IngestResult summarises one association pass.
type IngestResult struct {
	Matched  int      // Detections fused into existing tracks
	Created  []string // Ids of tracks created this pass
	Expired  []string // Ids of tracks removed by the missing-frame rule
	Rejected int      // Detections with non-finite geometry or score
	Dropped  int      // Detections not tracked because the store was full
}

// Ingest fuses one detection batch into the store.
//
// Association is greedy: each detection, in batch order, claims the
// unclaimed candidate track with the highest IOU above the threshold.
// Ties resolve to the track encountered first in store order. Tracks
// created earlier in the same batch stay claimable, so a duplicate
// detection of one object fuses into it instead of spawning a twin.
func (t *Tracker) Ingest(detections []Detection, now time.Time) IngestResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	var res IngestResult

	// Step 1: age every LOCAL track; NETWORK tracks are owned elsewhere.
	t.store.ForEach(func(tr *Track) {
		if tr.Source != SourceNetwork {
			tr.FramesMissing++
		}
	})

	// Step 2: greedy best-IOU match per detection.
	claimed := make(map[string]bool, t.store.Len())
	accepted := make([]Detection, 0, len(detections))
	for _, det := range detections {
		if !det.Box.IsFinite() || math.IsNaN(det.Score) || math.IsInf(det.Score, 0) {
			res.Rejected++
			continue
		}
		accepted = append(accepted, det)

		var best *Track
		bestIOU := 0.0
		t.store.ForEach(func(tr *Track) {
			if claimed[tr.ID] || tr.Source == SourceNetwork {
				return
			}
			if tr.Class != det.Class && !tr.IsAiAttached {
				return
			}
			iou := geom.IOU(tr.Box, det.Box)
			if iou > t.Config.IOUThreshold && iou > bestIOU {
				bestIOU = iou
				best = tr
			}
		})

		// Step 3: fuse into the match, or start a new track.
		if best != nil {
			t.fuse(best, det, now)
			claimed[best.ID] = true
			res.Matched++
			continue
		}

		if t.Config.MaxTracks > 0 && t.store.Len() >= t.Config.MaxTracks {
			res.Dropped++
			continue
		}
		tr := t.newTrack(det, now)
		t.store.Upsert(tr.ID, tr)
		res.Created = append(res.Created, tr.ID)
		trackLog.Diagf("created %s class=%s score=%.2f box=(%.3f,%.3f,%.3f,%.3f)",
			tr.ID, tr.Class, tr.Score, tr.Box.X, tr.Box.Y, tr.Box.W, tr.Box.H)
	}

	// Step 4: expire tracks missing for too long unless AI-attached.
	t.store.ForEach(func(tr *Track) {
		if tr.FramesMissing > t.Config.MaxFramesMissing && !tr.IsAiAttached {
			res.Expired = append(res.Expired, tr.ID)
		}
	})
	for _, id := range res.Expired {
		t.store.Remove(id)
		trackLog.Diagf("expired %s", id)
	}

	t.lastDetections = accepted

	t.stats.DetectionsMatched += uint64(res.Matched)
	t.stats.TracksCreated += uint64(len(res.Created))
	t.stats.TracksExpired += uint64(len(res.Expired))
	t.stats.DetectionsDropped += uint64(res.Dropped)

	if res.Dropped > 0 {
		trackLog.Opsf("track cap %d reached, dropped %d detections", t.Config.MaxTracks, res.Dropped)
	}
	if res.Rejected > 0 {
		trackLog.Opsf("rejected %d non-finite detections", res.Rejected)
	}
	trackLog.Tracef("ingest dets=%d matched=%d created=%d expired=%d live=%d",
		len(detections), res.Matched, len(res.Created), len(res.Expired), t.store.Len())

	return res
}

// fuse folds a matched detection into a track's raw state.
func (t *Tracker) fuse(tr *Track, det Detection, now time.Time) {
	dt := t.velocityDt(tr, now)

	newVX := (det.Box.X - tr.Box.X) / dt
	newVY := (det.Box.Y - tr.Box.Y) / dt
	vb := t.Config.VelocityBlend
	tr.VX = tr.VX*(1-vb) + newVX*vb
	tr.VY = tr.VY*(1-vb) + newVY*vb

	// Higher-confidence detections pull the raw target harder.
	alpha := geom.Clamp(t.Config.ConfidenceBlendBase+det.Score*t.Config.ConfidenceBlendGain, 0, 1)
	tr.Box = geom.Box{
		X: geom.Lerp(tr.Box.X, det.Box.X, alpha),
		Y: geom.Lerp(tr.Box.Y, det.Box.Y, alpha),
		W: geom.Lerp(tr.Box.W, det.Box.W, alpha),
		H: geom.Lerp(tr.Box.H, det.Box.H, alpha),
	}

	tr.FramesMissing = 0
	tr.LastUpdate = now
	tr.Score = det.Score
}

// velocityDt returns the seconds elapsed since the track's last match,
// falling back to the nominal detection period when that is unusable.
func (t *Tracker) velocityDt(tr *Track, now time.Time) float64 {
	elapsed := now.Sub(tr.LastUpdate)
	if tr.LastUpdate.IsZero() || elapsed <= 0 {
		elapsed = t.Config.DefaultVelocityDt
	}
	if t.Config.MaxVelocityDt > 0 && elapsed > t.Config.MaxVelocityDt {
		elapsed = t.Config.MaxVelocityDt
	}
	if elapsed <= 0 {
		elapsed = 100 * time.Millisecond
	}
	return elapsed.Seconds()
}

func (t *Tracker) newTrack(det Detection, now time.Time) *Track {
	return &Track{
		ID:             t.newID(),
		Source:         SourceLocal,
		Class:          det.Class,
		Score:          det.Score,
		Label:          DisplayLabel(det.Class, t.Config.ClassLabels),
		Color:          ColorDefault,
		Box:            det.Box,
		Smoothed:       det.Box,
		LastUpdate:     now,
		DistanceFactor: 0.5,
		DepthMeters:    5.0,
	}
}
