package detect

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/banshee-data/focus.overlay/internal/geom"
	"github.com/banshee-data/focus.overlay/internal/timeutil"
	"github.com/banshee-data/focus.overlay/internal/tracking"
)

// SceneObject is one scripted object moving on a straight line. Positions
// bounce off the frame edges.
type SceneObject struct {
	Class string
	Score float64
	Start geom.Box
	// Velocity of the top-left corner in screen fractions per second.
	VX, VY float64
	// Visible window relative to detector start; Until zero means forever.
	From, Until time.Duration
}

// SyntheticConfig configures a SyntheticDetector.
type SyntheticConfig struct {
	Objects []SceneObject
	// Jitter is the standard deviation of positional noise per frame.
	Jitter float64
	// DropRate is the probability an object is missed in a frame.
	DropRate float64
	Clock    timeutil.Clock
	Rand     *rand.Rand
}

// SyntheticDetector emits detections for a scripted scene.
type SyntheticDetector struct {
	cfg   SyntheticConfig
	start time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticDetector starts the scene clock now.
func NewSyntheticDetector(cfg SyntheticConfig) *SyntheticDetector {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &SyntheticDetector{cfg: cfg, start: cfg.Clock.Now(), rng: rng}
}

// DefaultScene is a small scene used when no replay file is given: a person
// drifting through the centre, a parked car and a dog crossing the frame.
func DefaultScene() []SceneObject {
	return []SceneObject{
		{Class: "person", Score: 0.88, Start: geom.Box{X: 0.05, Y: 0.35, W: 0.14, H: 0.32}, VX: 0.03},
		{Class: "car", Score: 0.81, Start: geom.Box{X: 0.62, Y: 0.6, W: 0.3, H: 0.18}},
		{Class: "dog", Score: 0.7, Start: geom.Box{X: 0.9, Y: 0.75, W: 0.08, H: 0.08}, VX: -0.08, From: 5 * time.Second, Until: 20 * time.Second},
	}
}

// Detect returns the scene at the current clock time.
func (d *SyntheticDetector) Detect(ctx context.Context) ([]tracking.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := d.cfg.Clock.Now()
	elapsed := now.Sub(d.start)

	d.mu.Lock()
	defer d.mu.Unlock()

	dets := make([]tracking.Detection, 0, len(d.cfg.Objects))
	for _, o := range d.cfg.Objects {
		if elapsed < o.From || (o.Until > 0 && elapsed >= o.Until) {
			continue
		}
		if d.cfg.DropRate > 0 && d.rng.Float64() < d.cfg.DropRate {
			continue
		}
		secs := (elapsed - o.From).Seconds()
		box := geom.Box{
			X: bounce(o.Start.X+o.VX*secs, 1-o.Start.W),
			Y: bounce(o.Start.Y+o.VY*secs, 1-o.Start.H),
			W: o.Start.W,
			H: o.Start.H,
		}
		if d.cfg.Jitter > 0 {
			box.X += d.rng.NormFloat64() * d.cfg.Jitter
			box.Y += d.rng.NormFloat64() * d.cfg.Jitter
		}
		dets = append(dets, tracking.Detection{Class: o.Class, Score: o.Score, Box: box, Timestamp: now})
	}
	return dets, nil
}

// bounce folds p into [0, span] as if reflecting off both walls.
func bounce(p, span float64) float64 {
	if span <= 0 {
		return 0
	}
	period := 2 * span
	p = math.Mod(p, period)
	if p < 0 {
		p += period
	}
	if p > span {
		return period - p
	}
	return p
}
