package engine

import (
	"time"

	"github.com/banshee-data/focus.overlay/internal/config"
	"github.com/banshee-data/focus.overlay/internal/timeutil"
)

// Config holds the engine cadences.
type Config struct {
	DetectionInterval   time.Duration
	RenderInterval      time.Duration
	MaxRenderDt         time.Duration // Render dt is clamped to this after stalls
	MinDetectionScore   float64
	AnalysisConcurrency int
	AnalysisTimeout     time.Duration // 0 disables the watchdog
	Clock               timeutil.Clock
}

// ConfigFromTuning derives engine settings from the tuning file.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		DetectionInterval:   cfg.GetDetectionInterval(),
		RenderInterval:      cfg.GetRenderInterval(),
		MaxRenderDt:         cfg.GetMaxRenderDt(),
		MinDetectionScore:   cfg.GetMinDetectionScore(),
		AnalysisConcurrency: cfg.GetAnalysisConcurrency(),
		AnalysisTimeout:     cfg.GetAnalysisTimeout(),
		Clock:               timeutil.RealClock{},
	}
}
