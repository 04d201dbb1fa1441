package analysis

import (
	"context"
	"errors"

	"github.com/banshee-data/focus.overlay/internal/monitoring"
	"github.com/banshee-data/focus.overlay/internal/tracking"
)

var analysisLog = monitoring.NewComponent("analysis")

// ErrNoProviders is returned by a Cascade with no providers configured.
var ErrNoProviders = errors.New("analysis: no providers configured")

// Analyzer describes one track. The returned text is ideally formatted
// "LABEL | description".
type Analyzer interface {
	Analyze(ctx context.Context, req tracking.AnalysisRequest) (string, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, req tracking.AnalysisRequest) (string, error)

// Analyze calls f.
func (f AnalyzerFunc) Analyze(ctx context.Context, req tracking.AnalysisRequest) (string, error) {
	return f(ctx, req)
}

// Provider completes a single text prompt.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}
