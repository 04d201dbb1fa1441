// Package geom holds the box and scalar helpers shared by the tracking stages.
// All coordinates are normalised screen fractions in [0, 1].
package geom

import "math"

// Box is an axis-aligned rectangle anchored at its top-left corner.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// BoxFromSlice builds a Box from a detector-style [x, y, w, h] slice.
// Short slices yield the zero Box.
func BoxFromSlice(v []float64) Box {
	if len(v) < 4 {
		return Box{}
	}
	return Box{X: v[0], Y: v[1], W: v[2], H: v[3]}
}

// Center returns the box centre.
func (b Box) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Area returns w*h. Negative extents are not clamped.
func (b Box) Area() float64 {
	return b.W * b.H
}

// IsFinite reports whether every component is a finite number.
func (b Box) IsFinite() bool {
	for _, v := range [4]float64{b.X, b.Y, b.W, b.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IOU returns the intersection-over-union of two boxes. A zero union
// returns 0 so degenerate boxes never match anything.
func IOU(a, b Box) float64 {
	x1 := math.Max(a.X, b.X)
	y1 := math.Max(a.Y, b.Y)
	x2 := math.Min(a.X+a.W, b.X+b.W)
	y2 := math.Min(a.Y+a.H, b.Y+b.H)

	inter := math.Max(0, x2-x1) * math.Max(0, y2-y1)
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Lerp blends a toward b by t. t is not clamped.
func Lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// Distance is the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
