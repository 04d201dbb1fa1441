package tracking

import (
	"time"

	"github.com/banshee-data/focus.overlay/internal/geom"
)

// Display colours and markers written onto tracks by the focus stage.
const (
	ColorDefault    = "#00FF94"
	ColorDecrypting = "#FFD700"
	ColorResolved   = "#FFFFFF"

	PlaceholderDescription = "DECRYPTING..."
	FailureDescription     = "DATA FAILURE"
)

// Source records which collaborator owns a track's raw geometry.
type Source string

const (
	SourceLocal   Source = "LOCAL"   // Fused from the local detector
	SourceNetwork Source = "NETWORK" // Maintained by an external collaborator; never aged here
)

// FocusState is the derived position of a track in the dwell state machine.
type FocusState string

const (
	FocusIdle            FocusState = "idle"
	FocusFocusing        FocusState = "focusing"
	FocusPendingAnalysis FocusState = "pending_analysis"
	FocusAnalyzed        FocusState = "analyzed"
)

// Detection is one raw per-frame observation from the detector.
type Detection struct {
	Class     string    `json:"class"`
	Score     float64   `json:"score"`
	Box       geom.Box  `json:"bbox"`
	Timestamp time.Time `json:"timestamp"`
}

// SegmentPoint is a decorative interior point animated once analysis starts.
// Coordinates are fractions of the track's box.
type SegmentPoint struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Active bool    `json:"active"`
}

// Track is one physically tracked object persisted across frames.
type Track struct {
	// Identity
	ID     string
	Source Source

	// Classification
	Class string
	Score float64
	Label string
	Color string

	// Raw target geometry, updated at detection rate.
	Box geom.Box
	// Smoothed display geometry, updated at render rate.
	Smoothed geom.Box

	// Blended velocity of the raw position (screen fractions per second).
	VX float64
	VY float64

	// Bookkeeping
	FramesMissing int
	LastUpdate    time.Time

	// Focus
	FocusProgress     float64 // ms in [0, DwellThresholdMs]
	IsAnalyzed        bool
	IsAnalysisPending bool
	LastAnalysisTime  time.Time

	// Derived visuals
	DistanceFactor float64
	DepthMeters    float64
	SegmentPoints  []SegmentPoint
	Description    string

	// IsAiAttached is set by AttachAiLabel. It relaxes class matching and
	// exempts the track from missing-frame expiry.
	IsAiAttached bool

	// Per-tick smoothed-centre displacement, newest last.
	motion []float64
	// Set when analysis fires; cleared once focus decays back to zero.
	firedThisDwell bool
}

// FocusState derives the track's position in the dwell state machine.
func (t *Track) FocusState() FocusState {
	switch {
	case t.IsAnalyzed:
		return FocusAnalyzed
	case t.IsAnalysisPending:
		return FocusPendingAnalysis
	case t.FocusProgress > 0:
		return FocusFocusing
	default:
		return FocusIdle
	}
}

// AnalysisRequest asks the analysis collaborator to describe one track.
// It is a copy; the collaborator never sees live track state.
type AnalysisRequest struct {
	TrackID string
	Class   string
	Label   string
	Score   float64
	Box     geom.Box
}

// AnalysisResult is the completion message for an AnalysisRequest. Err is
// non-nil when the call failed; Text is then ignored.
type AnalysisResult struct {
	TrackID     string
	Text        string
	Err         error
	CompletedAt time.Time
}
