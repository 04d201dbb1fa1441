package monitor

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/focus.overlay/internal/tracking"
)

// echartsAssetsPrefix points rendered pages at the public echarts bundle.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// renderTracksPage writes a page with the smoothed-centre scatter and a
// per-track focus progress bar.
func renderTracksPage(w io.Writer, snap tracking.Snapshot) error {
	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(tracksScatter(snap), focusBar(snap))
	return page.Render(w)
}

// tracksScatter plots smoothed centres in screen space. The third value
// is the focus progress, which drives the colour map.
func tracksScatter(snap tracking.Snapshot) *charts.Scatter {
	local := make([]opts.ScatterData, 0, len(snap.Tracks))
	remote := make([]opts.ScatterData, 0)
	for _, t := range snap.Tracks {
		cx, cy := t.Smoothed.Center()
		pt := opts.ScatterData{
			Name:  fmt.Sprintf("%s %s", t.Label, t.ID),
			Value: []interface{}{cx, cy, t.FocusProgress},
		}
		if t.Source == tracking.SourceNetwork {
			remote = append(remote, pt)
			continue
		}
		local = append(local, pt)
	}

	maxProgress := snap.DwellThresholdMs
	if maxProgress <= 0 {
		maxProgress = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Overlay Tracks", Theme: "dark", Width: "900px", Height: "700px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Smoothed Track Centres", Subtitle: fmt.Sprintf("seq=%d tracks=%d", snap.Seq, len(snap.Tracks))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: 1, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "Y (down)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxProgress),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#00FF94", "#b5de2b", "#FFD700", "#FFFFFF"}},
		}),
	)
	scatter.AddSeries("local", local, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))
	scatter.AddSeries("network", remote, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

func focusBar(snap tracking.Snapshot) *charts.Bar {
	ids := make([]string, 0, len(snap.Tracks))
	progress := make([]opts.BarData, 0, len(snap.Tracks))
	for _, t := range snap.Tracks {
		ids = append(ids, shortID(t.ID))
		progress = append(progress, opts.BarData{Name: t.Label, Value: t.FocusProgress})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "900px", Height: "360px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Focus Progress (ms)", Subtitle: fmt.Sprintf("lock at %.0f ms", snap.DwellThresholdMs)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(ids).
		AddSeries("focus", progress,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// shortID trims the uuid suffix so bar labels stay readable.
func shortID(id string) string {
	const keep = len("obj_") + 8
	if len(id) > keep {
		return id[:keep]
	}
	return id
}
