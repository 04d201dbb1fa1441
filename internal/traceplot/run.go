package traceplot

import (
	"context"
	"errors"
	"time"

	"github.com/banshee-data/focus.overlay/internal/detect"
	"github.com/banshee-data/focus.overlay/internal/monitoring"
	"github.com/banshee-data/focus.overlay/internal/timeutil"
	"github.com/banshee-data/focus.overlay/internal/tracking"
)

var traceLog = monitoring.NewComponent("traceplot")

// RunConfig controls an offline run. Time is driven by the mock clock, so
// a run completes as fast as the tracker can process it.
type RunConfig struct {
	Duration          time.Duration
	DetectionInterval time.Duration
	RenderInterval    time.Duration
	MinDetectionScore float64
}

// RunStats summarises an offline run.
type RunStats struct {
	RenderTicks     int
	Batches         int
	DetectorErrors  int
	AnalysesFired   int
	TracksCreated   int
	ReplayExhausted bool
}

// Run steps detector and tracker on clock for cfg.Duration, sampling
// every render tick into tp. Analysis requests are abandoned since no
// collaborator answers them offline.
func Run(ctx context.Context, cfg RunConfig, tracker *tracking.Tracker, detector detect.Detector, clock *timeutil.MockClock, tp *TracePlotter) (RunStats, error) {
	if cfg.RenderInterval <= 0 {
		cfg.RenderInterval = 16 * time.Millisecond
	}
	if cfg.DetectionInterval <= 0 {
		cfg.DetectionInterval = 100 * time.Millisecond
	}

	var stats RunStats
	nextDetect := clock.Now().Add(cfg.DetectionInterval)
	end := clock.Now().Add(cfg.Duration)

	for clock.Now().Before(end) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		clock.Advance(cfg.RenderInterval)
		now := clock.Now()

		if !stats.ReplayExhausted && !now.Before(nextDetect) {
			nextDetect = nextDetect.Add(cfg.DetectionInterval)
			dets, err := detector.Detect(ctx)
			switch {
			case errors.Is(err, detect.ErrReplayExhausted):
				stats.ReplayExhausted = true
				traceLog.Diagf("replay exhausted after %d batches", stats.Batches)
			case err != nil:
				stats.DetectorErrors++
				traceLog.Opsf("detector error: %v", err)
			default:
				res := tracker.Ingest(detect.FilterByScore(dets, cfg.MinDetectionScore), now)
				stats.Batches++
				stats.TracksCreated += len(res.Created)
			}
		}

		reqs := tracker.Advance(cfg.RenderInterval)
		for _, req := range reqs {
			tracker.AbandonAnalysis(req.TrackID)
		}
		stats.AnalysesFired += len(reqs)
		stats.RenderTicks++

		tp.Sample(tracker.Snapshot(now))
	}
	return stats, nil
}
