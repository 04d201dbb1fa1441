package analysis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/banshee-data/focus.overlay/internal/timeutil"
	"github.com/banshee-data/focus.overlay/internal/tracking"
)

// DispatcherConfig bounds out-of-line analysis work.
type DispatcherConfig struct {
	Concurrency int           // Maximum concurrent Analyze calls (default 4)
	Timeout     time.Duration // Per-call deadline; 0 disables the watchdog
	ResultQueue int           // Buffered completions (default 64)
	Clock       timeutil.Clock
}

// DispatcherStats counts dispatcher activity.
type DispatcherStats struct {
	Dispatched uint64 `json:"dispatched"`
	Succeeded  uint64 `json:"succeeded"`
	Failed     uint64 `json:"failed"`
	InFlight   int64  `json:"in_flight"`
}

// Dispatcher runs analysis requests in the background and delivers each
// completion, success or failure, on Results.
type Dispatcher struct {
	analyzer Analyzer
	sem      *semaphore.Weighted
	timeout  time.Duration
	clock    timeutil.Clock
	results  chan tracking.AnalysisResult
	wg       sync.WaitGroup

	dispatched atomic.Uint64
	succeeded  atomic.Uint64
	failed     atomic.Uint64
	inFlight   atomic.Int64
}

// NewDispatcher creates a dispatcher around analyzer.
func NewDispatcher(analyzer Analyzer, cfg DispatcherConfig) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.ResultQueue <= 0 {
		cfg.ResultQueue = 64
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &Dispatcher{
		analyzer: analyzer,
		sem:      semaphore.NewWeighted(int64(cfg.Concurrency)),
		timeout:  cfg.Timeout,
		clock:    cfg.Clock,
		results:  make(chan tracking.AnalysisResult, cfg.ResultQueue),
	}
}

// Results delivers completions in completion order.
func (d *Dispatcher) Results() <-chan tracking.AnalysisResult {
	return d.results
}

// Dispatch starts analysing req without blocking. Work abandoned because
// ctx ended produces no result.
func (d *Dispatcher) Dispatch(ctx context.Context, req tracking.AnalysisRequest) {
	d.dispatched.Add(1)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		if err := d.sem.Acquire(ctx, 1); err != nil {
			return
		}
		d.inFlight.Add(1)
		text, err := d.call(ctx, req)
		d.inFlight.Add(-1)
		d.sem.Release(1)

		if err != nil {
			d.failed.Add(1)
		} else {
			d.succeeded.Add(1)
		}
		res := tracking.AnalysisResult{
			TrackID:     req.TrackID,
			Text:        text,
			Err:         err,
			CompletedAt: d.clock.Now(),
		}
		select {
		case d.results <- res:
		case <-ctx.Done():
		}
	}()
}

func (d *Dispatcher) call(ctx context.Context, req tracking.AnalysisRequest) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	text, err := d.analyzer.Analyze(ctx, req)
	if err != nil {
		return "", fmt.Errorf("analyse %s: %w", req.TrackID, err)
	}
	return text, nil
}

// Wait blocks until every dispatched call has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Dispatched: d.dispatched.Load(),
		Succeeded:  d.succeeded.Load(),
		Failed:     d.failed.Load(),
		InFlight:   d.inFlight.Load(),
	}
}
