package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/focus.overlay/internal/tracking"
)

// Cascade tries each provider in order and returns the first success.
type Cascade struct {
	Providers []Provider
	// Memory is optional; lookup failures are logged and ignored.
	Memory MemoryIndex
}

// Analyze builds the prompt for req and runs it through the providers.
// When every provider fails the joined errors are returned.
func (c *Cascade) Analyze(ctx context.Context, req tracking.AnalysisRequest) (string, error) {
	if len(c.Providers) == 0 {
		return "", ErrNoProviders
	}

	var memories []Memory
	if c.Memory != nil {
		m, err := c.Memory.Find(ctx, SearchTags(req.Class))
		if err != nil {
			analysisLog.Opsf("memory lookup for %s failed: %v", req.TrackID, err)
		} else {
			memories = m
		}
	}
	prompt := BuildPrompt(req, memories)

	var errs []error
	for _, p := range c.Providers {
		text, err := p.Complete(ctx, prompt)
		if err == nil {
			analysisLog.Diagf("%s answered for %s via %s", req.Class, req.TrackID, p.Name())
			return strings.TrimSpace(text), nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
		analysisLog.Opsf("provider %s failed for %s, falling back: %v", p.Name(), req.TrackID, err)
	}
	return "", fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}
