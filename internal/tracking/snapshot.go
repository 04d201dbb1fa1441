package tracking

import (
	"time"

	"github.com/banshee-data/focus.overlay/internal/geom"
)

// TrackView is the read-only projection of a Track handed to the rendering
// layer. It shares no memory with the live track.
type TrackView struct {
	ID     string `json:"id"`
	Source Source `json:"source"`

	Class string  `json:"class"`
	Score float64 `json:"score"`
	Label string  `json:"label"`
	Color string  `json:"color"`

	Box      geom.Box `json:"raw"`
	Smoothed geom.Box `json:"smoothed"`
	VX       float64  `json:"vx"`
	VY       float64  `json:"vy"`

	FramesMissing int       `json:"frames_missing"`
	LastUpdate    time.Time `json:"last_update"`

	FocusProgress     float64    `json:"focus_progress"`
	FocusState        FocusState `json:"focus_state"`
	IsAnalyzed        bool       `json:"is_analyzed"`
	IsAnalysisPending bool       `json:"is_analysis_pending"`
	IsAiAttached      bool       `json:"is_ai_attached"`

	DistanceFactor float64        `json:"distance_factor"`
	DepthMeters    float64        `json:"depth_meters"`
	SegmentPoints  []SegmentPoint `json:"segment_points,omitempty"`
	Description    string         `json:"description,omitempty"`

	// JitterRMS is the RMS of recent per-tick smoothed-centre displacement.
	JitterRMS float64 `json:"jitter_rms"`
}

// Snapshot is an immutable view of the tracker at one instant.
type Snapshot struct {
	Seq              uint64      `json:"seq"`
	Timestamp        time.Time   `json:"timestamp"`
	DwellThresholdMs float64     `json:"dwell_threshold_ms"`
	Tracks           []TrackView `json:"tracks"`
	Detections       []Detection `json:"detections"`
}

// Track returns the view with the given id.
func (s Snapshot) Track(id string) (TrackView, bool) {
	for _, v := range s.Tracks {
		if v.ID == id {
			return v, true
		}
	}
	return TrackView{}, false
}

func viewOf(t *Track) TrackView {
	var pts []SegmentPoint
	if len(t.SegmentPoints) > 0 {
		pts = make([]SegmentPoint, len(t.SegmentPoints))
		copy(pts, t.SegmentPoints)
	}
	return TrackView{
		ID:                t.ID,
		Source:            t.Source,
		Class:             t.Class,
		Score:             t.Score,
		Label:             t.Label,
		Color:             t.Color,
		Box:               t.Box,
		Smoothed:          t.Smoothed,
		VX:                t.VX,
		VY:                t.VY,
		FramesMissing:     t.FramesMissing,
		LastUpdate:        t.LastUpdate,
		FocusProgress:     t.FocusProgress,
		FocusState:        t.FocusState(),
		IsAnalyzed:        t.IsAnalyzed,
		IsAnalysisPending: t.IsAnalysisPending,
		IsAiAttached:      t.IsAiAttached,
		DistanceFactor:    t.DistanceFactor,
		DepthMeters:       t.DepthMeters,
		SegmentPoints:     pts,
		Description:       t.Description,
		JitterRMS:         motionRMS(t.motion),
	}
}
