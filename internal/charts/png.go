package charts

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/footsync/internal/footsync"
	"github.com/banshee-data/footsync/internal/fsutil"
)

var markerColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}

const (
	pngWidth  = 14 * vg.Inch
	pngHeight = 6 * vg.Inch
)

// NewPlot builds the curve plot for one foot with a dashed vertical line at
// every selected marker.
func NewPlot(clipName string, f footsync.FootReport, o Options) (*plot.Plot, error) {
	if len(f.Curves) == 0 {
		return nil, fmt.Errorf("%s: %w", f.Label, ErrNoCurves)
	}

	p := plot.New()
	p.Title.Text = title(clipName, f)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = o.yLabel(f.Curves)

	var all []float64
	for i, c := range f.Curves {
		values := o.converted(c)
		pts := make(plotter.XYs, len(c.Times))
		for j, t := range c.Times {
			pts[j] = plotter.XY{X: t, Y: values[j]}
		}
		all = append(all, values...)

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(c.Name, line)
	}

	lo, hi := floats.Min(all), floats.Max(all)
	if hi-lo < 1e-9 {
		lo, hi = lo-1, hi+1
	}
	for i, m := range f.Selection.Markers {
		marker, err := plotter.NewLine(plotter.XYs{{X: m.Time, Y: lo}, {X: m.Time, Y: hi}})
		if err != nil {
			return nil, err
		}
		marker.Color = markerColor
		marker.Width = vg.Points(1)
		marker.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(marker)
		if i == 0 {
			p.Legend.Add(f.Foot.MarkerName, marker)
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePNG renders one foot to path.
func WritePNG(fsys fsutil.FileSystem, path, clipName string, f footsync.FootReport, o Options) error {
	p, err := NewPlot(clipName, f, o)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(pngWidth, pngHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", f.Label, err)
	}
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return w.Close()
}
