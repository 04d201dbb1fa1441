// Package traceplot records per-track geometry over an offline run and
// renders raw versus smoothed trajectories as PNG files.
package traceplot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/focus.overlay/internal/tracking"
)

// TracePlotter accumulates one sample per track per render tick.
type TracePlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string

	// samples holds per-track time series keyed by track id.
	samples map[string][]Sample
	labels  map[string]string
	tick    int
}

// Sample is one track's state at a render tick.
type Sample struct {
	Tick          int
	RawX, RawY    float64
	SmoothX       float64
	SmoothY       float64
	FocusProgress float64
	IsAnalyzed    bool
}

// NewTracePlotter returns a plotter that is not yet recording.
func NewTracePlotter() *TracePlotter {
	return &TracePlotter{
		samples: make(map[string][]Sample),
		labels:  make(map[string]string),
	}
}

// Start creates outputDir and resets any previous run.
func (tp *TracePlotter) Start(outputDir string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tp.outputDir = outputDir
	tp.enabled = true
	tp.tick = 0
	tp.samples = make(map[string][]Sample)
	tp.labels = make(map[string]string)
	return nil
}

// Stop disables sampling. Call GeneratePlots afterwards.
func (tp *TracePlotter) Stop() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.enabled = false
}

// Sample records every track in snap and advances the tick counter.
func (tp *TracePlotter) Sample(snap tracking.Snapshot) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if !tp.enabled {
		return
	}
	for _, t := range snap.Tracks {
		rx, ry := t.Box.Center()
		sx, sy := t.Smoothed.Center()
		tp.samples[t.ID] = append(tp.samples[t.ID], Sample{
			Tick:          tp.tick,
			RawX:          rx,
			RawY:          ry,
			SmoothX:       sx,
			SmoothY:       sy,
			FocusProgress: t.FocusProgress,
			IsAnalyzed:    t.IsAnalyzed,
		})
		tp.labels[t.ID] = t.Label
	}
	tp.tick++
}

// SampleCount returns the total number of samples collected.
func (tp *TracePlotter) SampleCount() int {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	count := 0
	for _, s := range tp.samples {
		count += len(s)
	}
	return count
}

// Samples returns a copy of the series for one track.
func (tp *TracePlotter) Samples(id string) []Sample {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return append([]Sample(nil), tp.samples[id]...)
}

// GeneratePlots writes a trajectory plot per track and one focus plot for
// the run. It returns the number of files written.
func (tp *TracePlotter) GeneratePlots() (int, error) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if tp.outputDir == "" {
		return 0, fmt.Errorf("plotter not started")
	}

	ids := make([]string, 0, len(tp.samples))
	for id := range tp.samples {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	written := 0
	for _, id := range ids {
		if len(tp.samples[id]) < 2 {
			continue
		}
		if err := tp.trajectoryPlot(id); err != nil {
			return written, fmt.Errorf("track %s: %w", id, err)
		}
		written++
	}
	if written == 0 {
		return 0, nil
	}

	if err := tp.focusPlot(ids); err != nil {
		return written, err
	}
	return written + 1, nil
}

func (tp *TracePlotter) trajectoryPlot(id string) error {
	samples := tp.samples[id]

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s %s - Raw vs Smoothed Centre", tp.labels[id], id)
	p.X.Label.Text = "X (screen fraction)"
	p.Y.Label.Text = "Y (screen fraction)"

	raw := make(plotter.XYs, 0, len(samples))
	smooth := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		raw = append(raw, plotter.XY{X: s.RawX, Y: 1 - s.RawY})
		smooth = append(smooth, plotter.XY{X: s.SmoothX, Y: 1 - s.SmoothY})
	}

	rawPts, err := plotter.NewScatter(raw)
	if err != nil {
		return err
	}
	rawPts.Color = color.RGBA{R: 200, G: 60, B: 60, A: 255}
	rawPts.Radius = vg.Points(1.5)
	p.Add(rawPts)
	p.Legend.Add("raw", rawPts)

	smoothLine, err := plotter.NewLine(smooth)
	if err != nil {
		return err
	}
	smoothLine.Color = color.RGBA{R: 0, G: 160, B: 90, A: 255}
	smoothLine.Width = vg.Points(1)
	p.Add(smoothLine)
	p.Legend.Add("smoothed", smoothLine)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	file := filepath.Join(tp.outputDir, fmt.Sprintf("track_%s_trajectory.png", id))
	if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
		return fmt.Errorf("save %s: %w", file, err)
	}
	return nil
}

func (tp *TracePlotter) focusPlot(ids []string) error {
	p := plot.New()
	p.Title.Text = "Focus Progress"
	p.X.Label.Text = "Render tick"
	p.Y.Label.Text = "Progress (ms)"

	colors := generateColors(len(ids))
	for i, id := range ids {
		samples := tp.samples[id]
		if len(samples) < 2 {
			continue
		}
		pts := make(plotter.XYs, 0, len(samples))
		for _, s := range samples {
			pts = append(pts, plotter.XY{X: float64(s.Tick), Y: s.FocusProgress})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(tp.labels[id], line)
	}
	p.Legend.Top = true
	p.Legend.Left = false

	file := filepath.Join(tp.outputDir, "focus_progress.png")
	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("save %s: %w", file, err)
	}
	return nil
}

// generateColors spreads n hues around the colour wheel.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	switch {
	case t < 0:
		t += 1
	case t > 1:
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

// MakeOutputDir returns a timestamped directory under baseDir, named after
// the replay file when one is given.
func MakeOutputDir(baseDir, replayFile string, now time.Time) string {
	ts := now.Format("20060102_150405")
	if replayFile != "" {
		base := filepath.Base(replayFile)
		name := base[:len(base)-len(filepath.Ext(base))]
		return filepath.Join(baseDir, name, ts)
	}
	return filepath.Join(baseDir, "scene_"+ts)
}
