package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/focus.overlay/internal/analysis"
	"github.com/banshee-data/focus.overlay/internal/detect"
	"github.com/banshee-data/focus.overlay/internal/monitoring"
	"github.com/banshee-data/focus.overlay/internal/timeutil"
	"github.com/banshee-data/focus.overlay/internal/tracking"
)

var engineLog = monitoring.NewComponent("engine")

var (
	// ErrNotRunning is returned by Attach when the loop is not running.
	ErrNotRunning = errors.New("engine: not running")
	// ErrAlreadyRunning is returned by Run on an engine that already ran.
	ErrAlreadyRunning = errors.New("engine: already running")
	// ErrNoCandidate is returned by Attach when no track qualifies.
	ErrNoCandidate = errors.New("engine: no matching track")
)

// SnapshotSink receives every render-tick snapshot. Publish must not block.
type SnapshotSink interface {
	Publish(snap tracking.Snapshot)
}

// Stats counts engine activity.
type Stats struct {
	Batches            uint64                   `json:"batches"`
	SkippedBusy        uint64                   `json:"skipped_busy"`
	DetectorErrors     uint64                   `json:"detector_errors"`
	RenderTicks        uint64                   `json:"render_ticks"`
	AnalysesDispatched uint64                   `json:"analyses_dispatched"`
	AnalysesAbandoned  uint64                   `json:"analyses_abandoned"`
	ResultsApplied     uint64                   `json:"results_applied"`
	ResultsDiscarded   uint64                   `json:"results_discarded"`
	Tracker            tracking.Stats           `json:"tracker"`
	Analysis           analysis.DispatcherStats `json:"analysis"`
}

type batch struct {
	dets []tracking.Detection
	at   time.Time
}

type attachCmd struct {
	class, label, color, description string
	reply                            chan attachReply
}

type attachReply struct {
	id string
	ok bool
}

// Engine owns a tracker and drives it from a detector and a render clock.
type Engine struct {
	cfg        Config
	tracker    *tracking.Tracker
	detector   detect.Detector
	dispatcher *analysis.Dispatcher
	sinks      []SnapshotSink

	batches  chan batch
	attachCh chan attachCmd
	done     chan struct{}
	started  atomic.Bool
	running  atomic.Bool
	latest   atomic.Pointer[tracking.Snapshot]

	busy               atomic.Bool
	batchCount         atomic.Uint64
	skippedBusy        atomic.Uint64
	detectorErrors     atomic.Uint64
	renderTicks        atomic.Uint64
	analysesDispatched atomic.Uint64
	analysesAbandoned  atomic.Uint64
	resultsApplied     atomic.Uint64
	resultsDiscarded   atomic.Uint64
}

// Option customises an Engine.
type Option func(*Engine)

// WithSink adds a snapshot consumer.
func WithSink(s SnapshotSink) Option {
	return func(e *Engine) { e.sinks = append(e.sinks, s) }
}

// New wires an engine. analyzer may be nil, in which case speculative
// analysis requests are abandoned immediately.
func New(cfg Config, tracker *tracking.Tracker, detector detect.Detector, analyzer analysis.Analyzer, opts ...Option) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.DetectionInterval <= 0 {
		cfg.DetectionInterval = 100 * time.Millisecond
	}
	if cfg.RenderInterval <= 0 {
		cfg.RenderInterval = 16 * time.Millisecond
	}
	e := &Engine{
		cfg:      cfg,
		tracker:  tracker,
		detector: detector,
		batches:  make(chan batch, 1),
		attachCh: make(chan attachCmd),
		done:     make(chan struct{}),
	}
	if analyzer != nil {
		e.dispatcher = analysis.NewDispatcher(analyzer, analysis.DispatcherConfig{
			Concurrency: cfg.AnalysisConcurrency,
			Timeout:     cfg.AnalysisTimeout,
			Clock:       cfg.Clock,
		})
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tracker returns the owned tracker for read-only helpers such as
// JitterMetrics.
func (e *Engine) Tracker() *tracking.Tracker {
	return e.tracker
}

// Run blocks until ctx is cancelled or a loop fails. A clean shutdown
// returns nil. An engine runs at most once.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	e.running.Store(true)
	defer e.running.Store(false)

	engineLog.Opsf("starting: detect every %v, render every %v, analysis=%t",
		e.cfg.DetectionInterval, e.cfg.RenderInterval, e.dispatcher != nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.detectLoop(gctx) })
	g.Go(func() error {
		defer close(e.done)
		return e.loop(gctx)
	})
	err := g.Wait()
	if e.dispatcher != nil {
		e.dispatcher.Wait()
	}

	engineLog.Opsf("stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// detectLoop calls the detector once per interval in the background. A tick
// arriving while the previous call is still running is skipped, never
// queued.
func (e *Engine) detectLoop(ctx context.Context) error {
	ticker := e.cfg.Clock.NewTicker(e.cfg.DetectionInterval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	exhausted := make(chan struct{})
	var once sync.Once

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-exhausted:
			engineLog.Opsf("detector exhausted, detection stopped")
			return nil
		case <-ticker.C():
			if !e.busy.CompareAndSwap(false, true) {
				e.skippedBusy.Add(1)
				engineLog.Tracef("detector busy, frame skipped")
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer e.busy.Store(false)

				dets, err := e.detector.Detect(ctx)
				if errors.Is(err, detect.ErrReplayExhausted) {
					once.Do(func() { close(exhausted) })
					return
				}
				if err != nil {
					if ctx.Err() == nil {
						e.detectorErrors.Add(1)
						engineLog.Opsf("detector failed, frame skipped: %v", err)
					}
					return
				}
				select {
				case e.batches <- batch{dets: dets, at: e.cfg.Clock.Now()}:
				case <-ctx.Done():
				}
			}()
		}
	}
}

// loop is the single writer for the tracker.
func (e *Engine) loop(ctx context.Context) error {
	render := e.cfg.Clock.NewTicker(e.cfg.RenderInterval)
	defer render.Stop()

	var results <-chan tracking.AnalysisResult
	if e.dispatcher != nil {
		results = e.dispatcher.Results()
	}
	last := e.cfg.Clock.Now()
	e.publish(last)

	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-e.batches:
			e.handleBatch(b)
		case now := <-render.C():
			e.handleRenderTick(ctx, now.Sub(last))
			last = now
			e.publish(now)
		case res := <-results:
			e.handleResult(res)
		case cmd := <-e.attachCh:
			id, ok := e.tracker.AttachAiLabel(cmd.class, cmd.label, cmd.color, cmd.description, e.cfg.Clock.Now())
			cmd.reply <- attachReply{id: id, ok: ok}
		}
	}
}

func (e *Engine) handleBatch(b batch) {
	e.batchCount.Add(1)
	dets := detect.FilterByScore(b.dets, e.cfg.MinDetectionScore)
	e.tracker.Ingest(dets, b.at)
}

func (e *Engine) handleRenderTick(ctx context.Context, dt time.Duration) {
	e.renderTicks.Add(1)
	if dt < 0 {
		dt = 0
	}
	if e.cfg.MaxRenderDt > 0 && dt > e.cfg.MaxRenderDt {
		dt = e.cfg.MaxRenderDt
	}

	for _, req := range e.tracker.Advance(dt) {
		if e.dispatcher == nil {
			e.tracker.AbandonAnalysis(req.TrackID)
			e.analysesAbandoned.Add(1)
			continue
		}
		e.dispatcher.Dispatch(ctx, req)
		e.analysesDispatched.Add(1)
	}
}

func (e *Engine) handleResult(res tracking.AnalysisResult) {
	if e.tracker.ApplyAnalysis(res) {
		e.resultsApplied.Add(1)
		return
	}
	e.resultsDiscarded.Add(1)
}

func (e *Engine) publish(now time.Time) {
	snap := e.tracker.Snapshot(now)
	e.latest.Store(&snap)
	for _, s := range e.sinks {
		s.Publish(snap)
	}
}

// Latest returns the most recent render-tick snapshot.
func (e *Engine) Latest() tracking.Snapshot {
	if p := e.latest.Load(); p != nil {
		return *p
	}
	return tracking.Snapshot{}
}

// Attach binds an externally authored label to the nearest-centre track
// matching class. It runs inside the loop and returns the chosen id.
func (e *Engine) Attach(ctx context.Context, class, label, color, description string) (string, error) {
	if !e.running.Load() {
		return "", ErrNotRunning
	}
	cmd := attachCmd{
		class:       class,
		label:       label,
		color:       color,
		description: description,
		reply:       make(chan attachReply, 1),
	}
	select {
	case e.attachCh <- cmd:
	case <-e.done:
		return "", ErrNotRunning
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case r := <-cmd.reply:
		if !r.ok {
			return "", ErrNoCandidate
		}
		return r.id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Stats returns a snapshot of the engine, tracker and dispatcher counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		Batches:            e.batchCount.Load(),
		SkippedBusy:        e.skippedBusy.Load(),
		DetectorErrors:     e.detectorErrors.Load(),
		RenderTicks:        e.renderTicks.Load(),
		AnalysesDispatched: e.analysesDispatched.Load(),
		AnalysesAbandoned:  e.analysesAbandoned.Load(),
		ResultsApplied:     e.resultsApplied.Load(),
		ResultsDiscarded:   e.resultsDiscarded.Load(),
		Tracker:            e.tracker.Stats(),
	}
	if e.dispatcher != nil {
		s.Analysis = e.dispatcher.Stats()
	}
	return s
}
