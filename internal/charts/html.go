package charts

import (
	"bytes"
	"fmt"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/footsync/internal/footsync"
	"github.com/banshee-data/footsync/internal/fsutil"
)

// NewLineChart builds an interactive chart for one foot. Curves are line
// series on a value time axis; markers are an overlaid scatter series.
func NewLineChart(clipName string, f footsync.FootReport, o Options) *echarts.Line {
	subtitle := fmt.Sprintf("markers=%d contacts=%d", len(f.Selection.Markers), f.Selection.Contacts)
	if f.Selection.LowConfidence {
		subtitle += " (low confidence)"
	}
	if f.Err != "" {
		subtitle = f.Err
	}

	line := echarts.NewLine()
	line.SetGlobalOptions(
		echarts.WithInitializationOpts(opts.Initialization{PageTitle: clipName, Width: "100%", Height: "420px"}),
		echarts.WithTitleOpts(opts.Title{Title: title(clipName, f), Subtitle: subtitle}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		echarts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		echarts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		echarts.WithYAxisOpts(opts.YAxis{Type: "value", Name: o.yLabel(f.Curves), NameLocation: "middle", NameGap: 40}),
	)

	for _, c := range f.Curves {
		values := o.converted(c)
		data := make([]opts.LineData, len(c.Times))
		for i, t := range c.Times {
			data[i] = opts.LineData{Value: []interface{}{t, values[i]}}
		}
		line.AddSeries(c.Name, data)
	}

	if len(f.Selection.Markers) > 0 {
		heights := o.markerHeights(f)
		pts := make([]opts.ScatterData, len(f.Selection.Markers))
		for i, m := range f.Selection.Markers {
			pts[i] = opts.ScatterData{Value: []interface{}{m.Time, heights[i], m.Confidence}}
		}
		scatter := echarts.NewScatter()
		scatter.AddSeries(f.Foot.MarkerName, pts, echarts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))
		line.Overlap(scatter)
	}
	return line
}

// RenderHTML renders one chart per foot onto a single page.
func RenderHTML(r *footsync.Report, o Options) ([]byte, error) {
	page := components.NewPage()
	for _, f := range r.Feet {
		page.AddCharts(NewLineChart(r.Clip, f, o))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTML renders the report page to path.
func WriteHTML(fsys fsutil.FileSystem, path string, r *footsync.Report, o Options) error {
	b, err := RenderHTML(r, o)
	if err != nil {
		return err
	}
	if err := fsys.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
