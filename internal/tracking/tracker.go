package tracking

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/focus.overlay/internal/monitoring"
)

var trackLog = monitoring.NewComponent("tracking")

// Tracker owns the track store and runs the association, smoothing and
// focus stages over it. All exported methods take the tracker lock, so the
// three stages never interleave.
type Tracker struct {
	Config TrackerConfig

	mu             sync.Mutex
	store          *Store
	lastDetections []Detection
	seq            uint64
	rng            *rand.Rand
	newID          func() string
	stats          Stats
}

// Stats counts tracker lifecycle events since construction.
type Stats struct {
	TracksCreated     uint64 `json:"tracks_created"`
	TracksExpired     uint64 `json:"tracks_expired"`
	DetectionsMatched uint64 `json:"detections_matched"`
	DetectionsDropped uint64 `json:"detections_dropped"`
	AnalysesFired     uint64 `json:"analyses_fired"`
	AnalysesApplied   uint64 `json:"analyses_applied"`
	AnalysesFailed    uint64 `json:"analyses_failed"`
	AnalysesDiscarded uint64 `json:"analyses_discarded"`
	Attachments       uint64 `json:"attachments"`
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithRand sets the random source used for decorative segment points.
func WithRand(r *rand.Rand) Option {
	return func(t *Tracker) { t.rng = r }
}

// WithIDGenerator replaces the default uuid-based track id generator.
func WithIDGenerator(fn func() string) Option {
	return func(t *Tracker) { t.newID = fn }
}

// NewTracker creates a tracker with an empty store.
func NewTracker(config TrackerConfig, opts ...Option) *Tracker {
	t := &Tracker{
		Config: config,
		store:  NewStore(),
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		newID:  newTrackID,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func newTrackID() string {
	return fmt.Sprintf("obj_%s", uuid.NewString())
}

// Store exposes the underlying store. Callers must not retain *Track values
// beyond a single serialised call.
func (t *Tracker) Store() *Store {
	return t.store
}

// AddTrack inserts an externally maintained track, for example a NETWORK
// track owned by a presence collaborator. Missing identity or display
// fields are defaulted.
func (t *Tracker) AddTrack(tr *Track) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tr.ID == "" {
		tr.ID = t.newID()
	}
	if tr.Source == "" {
		tr.Source = SourceLocal
	}
	if tr.Color == "" {
		tr.Color = ColorDefault
	}
	if tr.Label == "" {
		tr.Label = DisplayLabel(tr.Class, t.Config.ClassLabels)
	}
	if tr.DistanceFactor == 0 {
		tr.DistanceFactor = 0.5
	}
	if tr.DepthMeters == 0 {
		tr.DepthMeters = 5.0
	}
	t.store.Upsert(tr.ID, tr)
	return tr.ID
}

// RemoveTrack deletes a track by id and reports whether it existed.
func (t *Tracker) RemoveTrack(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.store.Get(id) == nil {
		return false
	}
	t.store.Remove(id)
	return true
}

// LastDetections returns a copy of the most recently ingested batch.
func (t *Tracker) LastDetections() []Detection {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Detection, len(t.lastDetections))
	copy(out, t.lastDetections)
	return out
}

// Snapshot returns an immutable copy of every track plus the latest batch.
func (t *Tracker) Snapshot(now time.Time) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	dets := make([]Detection, len(t.lastDetections))
	copy(dets, t.lastDetections)
	return Snapshot{
		Seq:              t.seq,
		Timestamp:        now,
		DwellThresholdMs: t.Config.DwellThresholdMs,
		Tracks:           t.store.Snapshot(),
		Detections:       dets,
	}
}

// Stats returns a copy of the lifecycle counters.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
