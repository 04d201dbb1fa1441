package tracking

import (
	"time"

	"github.com/banshee-data/focus.overlay/internal/config"
)

// TrackerConfig holds the typed tracker parameters.
type TrackerConfig struct {
	// Association
	IOUThreshold        float64       // Minimum IOU (exclusive) for a detection to claim a track
	MaxFramesMissing    int           // Tracks with more consecutive misses are removed
	VelocityBlend       float64       // Weight of the instantaneous velocity in the blended estimate
	ConfidenceBlendBase float64       // Position blend factor at score 0
	ConfidenceBlendGain float64       // Extra blend factor per unit of score
	MaxTracks           int           // Cap on live tracks; extra detections are dropped
	DefaultVelocityDt   time.Duration // Used when the elapsed time since the last match is unusable
	MaxVelocityDt       time.Duration // Upper bound on the velocity dt

	// Smoothing
	SmoothingFactor  float64 // Correction gain toward the raw target per render tick
	SegmentPointStep float64 // Segment point velocity scale per tick

	// Focus
	FocusRadius         float64       // Centre-distance below which a track is in the focus zone
	DwellThresholdMs    float64       // Focus progress at which the visual lock completes
	SpeculativeFraction float64       // Fraction of the dwell threshold that fires analysis
	FocusGainRate       float64       // Progress ms gained per second in zone
	FocusDecayRate      float64       // Progress ms lost per second out of zone
	DescriptionMaxLen   int           // Truncation for undelimited analysis text
	AIAttachHold        time.Duration // How far attachment pushes LastUpdate forward

	// ClassLabels overrides entries of the built-in display-label table.
	ClassLabels map[string]string
}

// DefaultTrackerConfig returns tracker configuration loaded from the
// canonical tuning defaults file (config/tuning.defaults.json).
// Panics if the file cannot be found; intended for tests.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfigFromTuning(config.MustLoadDefaultConfig())
}

// TrackerConfigFromTuning builds a TrackerConfig from a loaded TuningConfig.
func TrackerConfigFromTuning(cfg *config.TuningConfig) TrackerConfig {
	return TrackerConfig{
		IOUThreshold:        cfg.GetIOUThreshold(),
		MaxFramesMissing:    cfg.GetMaxFramesMissing(),
		VelocityBlend:       cfg.GetVelocityBlend(),
		ConfidenceBlendBase: cfg.GetConfidenceBlendBase(),
		ConfidenceBlendGain: cfg.GetConfidenceBlendGain(),
		MaxTracks:           cfg.GetMaxTracks(),
		DefaultVelocityDt:   cfg.GetDefaultVelocityDt(),
		MaxVelocityDt:       cfg.GetMaxVelocityDt(),
		SmoothingFactor:     cfg.GetSmoothingFactor(),
		SegmentPointStep:    cfg.GetSegmentPointStep(),
		FocusRadius:         cfg.GetFocusRadius(),
		DwellThresholdMs:    cfg.GetDwellThresholdMs(),
		SpeculativeFraction: cfg.GetSpeculativeFraction(),
		FocusGainRate:       cfg.GetFocusGainRate(),
		FocusDecayRate:      cfg.GetFocusDecayRate(),
		DescriptionMaxLen:   cfg.GetDescriptionMaxLen(),
		AIAttachHold:        cfg.GetAIAttachHold(),
		ClassLabels:         cfg.ClassLabels,
	}
}
