package tracking

import (
	"strings"
	"time"

	"github.com/banshee-data/focus.overlay/internal/geom"
)

// AnyClass matches every track in AttachAiLabel.
const AnyClass = "any"

// attachMaxDistance bounds how far from screen centre an attachable track
// may be.
const attachMaxDistance = 1.0

// AttachAiLabel binds an externally authored label to the track nearest the
// screen centre whose class contains targetClass (or any track for
// AnyClass). The chosen track is marked analyzed and attached, which
// exempts it from expiry and relaxes class matching. An empty label or
// description leaves the existing value in place.
//
// It returns the chosen track id, or false when no track qualifies.
func (t *Tracker) AttachAiLabel(targetClass, label, color, description string, now time.Time) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var best *Track
	bestDist := attachMaxDistance
	t.store.ForEach(func(tr *Track) {
		if targetClass != AnyClass && !strings.Contains(tr.Class, targetClass) {
			return
		}
		cx, cy := tr.Smoothed.Center()
		if d := geom.Distance(cx, cy, 0.5, 0.5); d < bestDist {
			bestDist = d
			best = tr
		}
	})
	if best == nil {
		trackLog.Diagf("attach %q: no candidate", targetClass)
		return "", false
	}

	if label != "" {
		best.Label = label
	}
	if color != "" {
		best.Color = color
	}
	if description != "" {
		best.Description = description
	}
	best.IsAiAttached = true
	best.LastUpdate = now.Add(t.Config.AIAttachHold)
	best.FocusProgress = t.Config.DwellThresholdMs
	best.IsAnalyzed = true
	t.stats.Attachments++

	trackLog.Diagf("attached %s label=%q dist=%.3f", best.ID, best.Label, bestDist)
	return best.ID, true
}
