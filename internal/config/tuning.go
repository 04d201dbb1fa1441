package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root tuning document for the overlay tracker.
// Every field is optional; the Get* accessors fall back to the
// reference-product defaults for anything left unset.
type TuningConfig struct {
	// Association
	IOUThreshold        *float64 `json:"iou_threshold,omitempty"`
	MaxFramesMissing    *int     `json:"max_frames_missing,omitempty"`
	VelocityBlend       *float64 `json:"velocity_blend,omitempty"`
	ConfidenceBlendBase *float64 `json:"confidence_blend_base,omitempty"`
	ConfidenceBlendGain *float64 `json:"confidence_blend_gain,omitempty"`
	MaxTracks           *int     `json:"max_tracks,omitempty"`
	DefaultVelocityDt   *string  `json:"default_velocity_dt,omitempty"` // duration string like "100ms"
	MaxVelocityDt       *string  `json:"max_velocity_dt,omitempty"`
	MinDetectionScore   *float64 `json:"min_detection_score,omitempty"`

	// Smoothing
	SmoothingFactor  *float64 `json:"smoothing_factor,omitempty"`
	SegmentPointStep *float64 `json:"segment_point_step,omitempty"`

	// Focus
	FocusRadius         *float64 `json:"focus_radius,omitempty"`
	DwellThresholdMs    *float64 `json:"dwell_threshold_ms,omitempty"`
	SpeculativeFraction *float64 `json:"speculative_fraction,omitempty"`
	FocusGainRate       *float64 `json:"focus_gain_rate,omitempty"`  // ms of progress per second in zone
	FocusDecayRate      *float64 `json:"focus_decay_rate,omitempty"` // ms of progress lost per second out of zone
	DescriptionMaxLen   *int     `json:"description_max_len,omitempty"`
	AIAttachHold        *string  `json:"ai_attach_hold,omitempty"`

	// Scheduling
	DetectionInterval   *string `json:"detection_interval,omitempty"`
	RenderInterval      *string `json:"render_interval,omitempty"`
	MaxRenderDt         *string `json:"max_render_dt,omitempty"`
	AnalysisConcurrency *int    `json:"analysis_concurrency,omitempty"`
	AnalysisTimeout     *string `json:"analysis_timeout,omitempty"` // empty disables the watchdog

	// ClassLabels overrides entries of the built-in class→display-label table.
	ClassLabels map[string]string `json:"class_labels,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in defaults. Useful for dumping a complete document.
func DefaultTuningConfig() *TuningConfig {
	c := EmptyTuningConfig()
	return &TuningConfig{
		IOUThreshold:        ptrFloat64(c.GetIOUThreshold()),
		MaxFramesMissing:    ptrInt(c.GetMaxFramesMissing()),
		VelocityBlend:       ptrFloat64(c.GetVelocityBlend()),
		ConfidenceBlendBase: ptrFloat64(c.GetConfidenceBlendBase()),
		ConfidenceBlendGain: ptrFloat64(c.GetConfidenceBlendGain()),
		MaxTracks:           ptrInt(c.GetMaxTracks()),
		DefaultVelocityDt:   ptrString(c.GetDefaultVelocityDt().String()),
		MaxVelocityDt:       ptrString(c.GetMaxVelocityDt().String()),
		MinDetectionScore:   ptrFloat64(c.GetMinDetectionScore()),
		SmoothingFactor:     ptrFloat64(c.GetSmoothingFactor()),
		SegmentPointStep:    ptrFloat64(c.GetSegmentPointStep()),
		FocusRadius:         ptrFloat64(c.GetFocusRadius()),
		DwellThresholdMs:    ptrFloat64(c.GetDwellThresholdMs()),
		SpeculativeFraction: ptrFloat64(c.GetSpeculativeFraction()),
		FocusGainRate:       ptrFloat64(c.GetFocusGainRate()),
		FocusDecayRate:      ptrFloat64(c.GetFocusDecayRate()),
		DescriptionMaxLen:   ptrInt(c.GetDescriptionMaxLen()),
		AIAttachHold:        ptrString(c.GetAIAttachHold().String()),
		DetectionInterval:   ptrString(c.GetDetectionInterval().String()),
		RenderInterval:      ptrString(c.GetRenderInterval().String()),
		MaxRenderDt:         ptrString(c.GetMaxRenderDt().String()),
		AnalysisConcurrency: ptrInt(c.GetAnalysisConcurrency()),
		AnalysisTimeout:     ptrString(""),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file keep their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for tests and binaries that have already validated the checkout.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/<pkg>/
		"../../../" + DefaultConfigPath, // from cmd/tools/<tool>/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from repository root")
}

// Validate checks that the configuration values are within range.
func (c *TuningConfig) Validate() error {
	unit := []struct {
		name string
		v    *float64
	}{
		{"iou_threshold", c.IOUThreshold},
		{"velocity_blend", c.VelocityBlend},
		{"confidence_blend_base", c.ConfidenceBlendBase},
		{"confidence_blend_gain", c.ConfidenceBlendGain},
		{"min_detection_score", c.MinDetectionScore},
		{"smoothing_factor", c.SmoothingFactor},
		{"speculative_fraction", c.SpeculativeFraction},
	}
	for _, f := range unit {
		if f.v != nil && (*f.v < 0 || *f.v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", f.name, *f.v)
		}
	}
	if c.ConfidenceBlendBase != nil || c.ConfidenceBlendGain != nil {
		if sum := c.GetConfidenceBlendBase() + c.GetConfidenceBlendGain(); sum > 1 {
			return fmt.Errorf("confidence_blend_base + confidence_blend_gain must not exceed 1, got %f", sum)
		}
	}

	positive := []struct {
		name string
		v    *float64
	}{
		{"focus_radius", c.FocusRadius},
		{"dwell_threshold_ms", c.DwellThresholdMs},
		{"focus_gain_rate", c.FocusGainRate},
		{"focus_decay_rate", c.FocusDecayRate},
	}
	for _, f := range positive {
		if f.v != nil && *f.v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", f.name, *f.v)
		}
	}
	if c.SegmentPointStep != nil && *c.SegmentPointStep < 0 {
		return fmt.Errorf("segment_point_step must be non-negative, got %f", *c.SegmentPointStep)
	}

	counts := []struct {
		name string
		v    *int
		min  int
	}{
		{"max_frames_missing", c.MaxFramesMissing, 0},
		{"max_tracks", c.MaxTracks, 1},
		{"description_max_len", c.DescriptionMaxLen, 1},
		{"analysis_concurrency", c.AnalysisConcurrency, 1},
	}
	for _, f := range counts {
		if f.v != nil && *f.v < f.min {
			return fmt.Errorf("%s must be at least %d, got %d", f.name, f.min, *f.v)
		}
	}

	durations := []struct {
		name string
		v    *string
	}{
		{"default_velocity_dt", c.DefaultVelocityDt},
		{"max_velocity_dt", c.MaxVelocityDt},
		{"ai_attach_hold", c.AIAttachHold},
		{"detection_interval", c.DetectionInterval},
		{"render_interval", c.RenderInterval},
		{"max_render_dt", c.MaxRenderDt},
		{"analysis_timeout", c.AnalysisTimeout},
	}
	for _, f := range durations {
		if f.v == nil || *f.v == "" {
			continue
		}
		d, err := time.ParseDuration(*f.v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", f.name, *f.v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", f.name, *f.v)
		}
	}

	return nil
}

func parseDurationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}

// GetIOUThreshold returns the iou_threshold value or the default.
func (c *TuningConfig) GetIOUThreshold() float64 {
	if c.IOUThreshold == nil {
		return 0.3
	}
	return *c.IOUThreshold
}

// GetMaxFramesMissing returns the max_frames_missing value or the default.
func (c *TuningConfig) GetMaxFramesMissing() int {
	if c.MaxFramesMissing == nil {
		return 10
	}
	return *c.MaxFramesMissing
}

// GetVelocityBlend returns the velocity_blend value or the default.
func (c *TuningConfig) GetVelocityBlend() float64 {
	if c.VelocityBlend == nil {
		return 0.5
	}
	return *c.VelocityBlend
}

// GetConfidenceBlendBase returns the confidence_blend_base value or the default.
func (c *TuningConfig) GetConfidenceBlendBase() float64 {
	if c.ConfidenceBlendBase == nil {
		return 0.6
	}
	return *c.ConfidenceBlendBase
}

// GetConfidenceBlendGain returns the confidence_blend_gain value or the default.
func (c *TuningConfig) GetConfidenceBlendGain() float64 {
	if c.ConfidenceBlendGain == nil {
		return 0.4
	}
	return *c.ConfidenceBlendGain
}

// GetMaxTracks returns the max_tracks value or the default.
func (c *TuningConfig) GetMaxTracks() int {
	if c.MaxTracks == nil {
		return 64
	}
	return *c.MaxTracks
}

// GetDefaultVelocityDt returns the default_velocity_dt value or the default.
func (c *TuningConfig) GetDefaultVelocityDt() time.Duration {
	return parseDurationOr(c.DefaultVelocityDt, 100*time.Millisecond)
}

// GetMaxVelocityDt returns the max_velocity_dt value or the default.
func (c *TuningConfig) GetMaxVelocityDt() time.Duration {
	return parseDurationOr(c.MaxVelocityDt, time.Second)
}

// GetMinDetectionScore returns the min_detection_score value or the default.
func (c *TuningConfig) GetMinDetectionScore() float64 {
	if c.MinDetectionScore == nil {
		return 0.55
	}
	return *c.MinDetectionScore
}

// GetSmoothingFactor returns the smoothing_factor value or the default.
func (c *TuningConfig) GetSmoothingFactor() float64 {
	if c.SmoothingFactor == nil {
		return 0.15
	}
	return *c.SmoothingFactor
}

// GetSegmentPointStep returns the segment_point_step value or the default.
func (c *TuningConfig) GetSegmentPointStep() float64 {
	if c.SegmentPointStep == nil {
		return 0.01
	}
	return *c.SegmentPointStep
}

// GetFocusRadius returns the focus_radius value or the default.
func (c *TuningConfig) GetFocusRadius() float64 {
	if c.FocusRadius == nil {
		return 0.12
	}
	return *c.FocusRadius
}

// GetDwellThresholdMs returns the dwell_threshold_ms value or the default.
func (c *TuningConfig) GetDwellThresholdMs() float64 {
	if c.DwellThresholdMs == nil {
		return 250
	}
	return *c.DwellThresholdMs
}

// GetSpeculativeFraction returns the speculative_fraction value or the default.
func (c *TuningConfig) GetSpeculativeFraction() float64 {
	if c.SpeculativeFraction == nil {
		return 0.6
	}
	return *c.SpeculativeFraction
}

// GetFocusGainRate returns the focus_gain_rate value or the default.
func (c *TuningConfig) GetFocusGainRate() float64 {
	if c.FocusGainRate == nil {
		return 1000
	}
	return *c.FocusGainRate
}

// GetFocusDecayRate returns the focus_decay_rate value or the default.
func (c *TuningConfig) GetFocusDecayRate() float64 {
	if c.FocusDecayRate == nil {
		return 2000
	}
	return *c.FocusDecayRate
}

// GetDescriptionMaxLen returns the description_max_len value or the default.
func (c *TuningConfig) GetDescriptionMaxLen() int {
	if c.DescriptionMaxLen == nil {
		return 40
	}
	return *c.DescriptionMaxLen
}

// GetAIAttachHold returns the ai_attach_hold value or the default.
func (c *TuningConfig) GetAIAttachHold() time.Duration {
	return parseDurationOr(c.AIAttachHold, 30*time.Second)
}

// GetDetectionInterval returns the detection_interval value or the default.
func (c *TuningConfig) GetDetectionInterval() time.Duration {
	return parseDurationOr(c.DetectionInterval, 100*time.Millisecond)
}

// GetRenderInterval returns the render_interval value or the default.
func (c *TuningConfig) GetRenderInterval() time.Duration {
	return parseDurationOr(c.RenderInterval, 16*time.Millisecond)
}

// GetMaxRenderDt returns the max_render_dt value or the default.
func (c *TuningConfig) GetMaxRenderDt() time.Duration {
	return parseDurationOr(c.MaxRenderDt, 250*time.Millisecond)
}

// GetAnalysisConcurrency returns the analysis_concurrency value or the default.
func (c *TuningConfig) GetAnalysisConcurrency() int {
	if c.AnalysisConcurrency == nil {
		return 4
	}
	return *c.AnalysisConcurrency
}

// GetAnalysisTimeout returns the analysis watchdog timeout. Zero means disabled.
func (c *TuningConfig) GetAnalysisTimeout() time.Duration {
	return parseDurationOr(c.AnalysisTimeout, 0)
}
