package tracking

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// JitterMetrics summarises a track's recent per-tick smoothed-centre
// displacement. A steady object drifting at constant speed shows a low
// StdDev; high StdDev relative to Mean indicates visible jitter.
type JitterMetrics struct {
	TrackID string  `json:"track_id"`
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stddev"`
	RMS     float64 `json:"rms"`
}

// JitterMetrics returns displacement statistics for every track with at
// least two samples, in store order.
func (t *Tracker) JitterMetrics() []JitterMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []JitterMetrics
	t.store.ForEach(func(tr *Track) {
		if len(tr.motion) < 2 {
			return
		}
		mean, std := stat.MeanStdDev(tr.motion, nil)
		out = append(out, JitterMetrics{
			TrackID: tr.ID,
			Samples: len(tr.motion),
			Mean:    mean,
			StdDev:  std,
			RMS:     motionRMS(tr.motion),
		})
	})
	return out
}

func motionRMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(samples, samples) / float64(len(samples)))
}
