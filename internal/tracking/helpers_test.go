package tracking

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/banshee-data/focus.overlay/internal/geom"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestTracker returns a tracker with default tuning, sequential ids and a
// fixed random source.
func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	n := 0
	return NewTracker(DefaultTrackerConfig(),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("obj_%d", n)
		}),
	)
}

func det(class string, score, x, y, w, h float64) Detection {
	return Detection{Class: class, Score: score, Box: geom.Box{X: x, Y: y, W: w, H: h}}
}

// centred is a person detection whose centre sits exactly at (0.5, 0.5).
func centred() Detection {
	return det("person", 0.9, 0.4, 0.4, 0.2, 0.2)
}

func advanceN(tr *Tracker, n int, dt time.Duration) []AnalysisRequest {
	var fired []AnalysisRequest
	for range n {
		fired = append(fired, tr.Advance(dt)...)
	}
	return fired
}
