// Package detect adapts per-frame object detectors to the tracker.
//
// The production detector (a vision model) lives outside this service; the
// adapters here cover scripted scenes for development and JSON-lines replay
// of recorded sessions.
package detect

import (
	"context"
	"errors"

	"github.com/banshee-data/focus.overlay/internal/monitoring"
	"github.com/banshee-data/focus.overlay/internal/tracking"
)

var detectLog = monitoring.NewComponent("detect")

// ErrReplayExhausted is returned by a non-looping ReplayDetector after the
// last recorded frame.
var ErrReplayExhausted = errors.New("detect: replay exhausted")

// Detector returns the objects visible in the current frame. An empty batch
// is valid; an error means the frame should be skipped.
type Detector interface {
	Detect(ctx context.Context) ([]tracking.Detection, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context) ([]tracking.Detection, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context) ([]tracking.Detection, error) {
	return f(ctx)
}

// FilterByScore keeps detections scoring at least min. The input slice is
// not modified.
func FilterByScore(dets []tracking.Detection, min float64) []tracking.Detection {
	out := make([]tracking.Detection, 0, len(dets))
	for _, d := range dets {
		if d.Score >= min {
			out = append(out, d)
		}
	}
	return out
}
