package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIOU(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Box
		want float64
	}{
		{"identical", Box{0.4, 0.4, 0.2, 0.2}, Box{0.4, 0.4, 0.2, 0.2}, 1.0},
		{"disjoint", Box{0, 0, 0.1, 0.1}, Box{0.5, 0.5, 0.1, 0.1}, 0.0},
		{"touching edges", Box{0, 0, 0.5, 0.5}, Box{0.5, 0, 0.5, 0.5}, 0.0},
		{"half overlap", Box{0, 0, 0.2, 0.2}, Box{0.1, 0, 0.2, 0.2}, 0.02 / 0.06},
		{"contained", Box{0, 0, 0.4, 0.4}, Box{0.1, 0.1, 0.2, 0.2}, 0.04 / 0.16},
		{"both degenerate", Box{0.3, 0.3, 0, 0}, Box{0.3, 0.3, 0, 0}, 0.0},
		{"one degenerate", Box{0.3, 0.3, 0, 0}, Box{0.2, 0.2, 0.2, 0.2}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, IOU(tt.a, tt.b), 1e-9)
			assert.InDelta(t, IOU(tt.a, tt.b), IOU(tt.b, tt.a), 1e-12, "IOU must be symmetric")
		})
	}
}

func TestLerp(t *testing.T) {
	assert.Equal(t, 0.0, Lerp(0, 1, 0))
	assert.Equal(t, 1.0, Lerp(0, 1, 1))
	assert.InDelta(t, 0.25, Lerp(0, 1, 0.25), 1e-12)
	// t outside [0, 1] extrapolates.
	assert.InDelta(t, 2.0, Lerp(0, 1, 2), 1e-12)
}

func TestDistanceAndClamp(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(0, 0, 3, 4), 1e-12)
	assert.Equal(t, 0.1, Clamp(0.05, 0.1, 1))
	assert.Equal(t, 1.0, Clamp(3, 0.1, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0.1, 1))
}

func TestBoxHelpers(t *testing.T) {
	b := BoxFromSlice([]float64{0.4, 0.4, 0.2, 0.2})
	cx, cy := b.Center()
	assert.InDelta(t, 0.5, cx, 1e-12)
	assert.InDelta(t, 0.5, cy, 1e-12)
	assert.InDelta(t, 0.04, b.Area(), 1e-12)
	assert.True(t, b.IsFinite())
	assert.False(t, Box{X: math.NaN()}.IsFinite())
	assert.False(t, Box{W: math.Inf(1)}.IsFinite())
	assert.Equal(t, Box{}, BoxFromSlice([]float64{1, 2}))
}
