// Package charts renders per-foot curves and sync markers as PNG plots and
// an interactive HTML page.
package charts

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"

	"github.com/banshee-data/footsync/internal/curves"
	"github.com/banshee-data/footsync/internal/footsync"
	"github.com/banshee-data/footsync/internal/units"
)

// ErrNoCurves is returned when a foot has nothing to plot.
var ErrNoCurves = errors.New("foot has no curves to plot")

// Options controls chart rendering.
type Options struct {
	// Units is the display length unit (cm, m or in). Curves are stored in cm.
	Units string
}

// DefaultOptions draws charts in centimetres.
func DefaultOptions() Options {
	return Options{Units: units.CM}
}

func (o Options) convert(kind curves.Kind, v float64) float64 {
	if kind == curves.KindVelocity {
		return units.ConvertSpeed(v, o.Units)
	}
	return units.ConvertLength(v, o.Units)
}

// yLabel names the value axis after the curve kinds present.
func (o Options) yLabel(cs []curves.Curve) string {
	var dist, vel bool
	for _, c := range cs {
		switch c.Kind {
		case curves.KindDistance:
			dist = true
		case curves.KindVelocity:
			vel = true
		}
	}
	switch {
	case dist && vel:
		return fmt.Sprintf("Distance (%s) / Speed (%s)", units.LengthLabel(o.Units), units.SpeedLabel(o.Units))
	case vel:
		return fmt.Sprintf("Speed (%s)", units.SpeedLabel(o.Units))
	default:
		return fmt.Sprintf("Distance (%s)", units.LengthLabel(o.Units))
	}
}

// converted returns a curve's values in display units.
func (o Options) converted(c curves.Curve) []float64 {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		out[i] = o.convert(c.Kind, v)
	}
	return out
}

// markerHeights places each marker on the first curve so it sits on the
// line in the HTML chart. Without a usable curve markers sit at zero.
func (o Options) markerHeights(f footsync.FootReport) []float64 {
	out := make([]float64, len(f.Selection.Markers))
	if len(f.Curves) == 0 || len(f.Curves[0].Times) < 2 {
		return out
	}
	c := f.Curves[0]
	var pl interp.PiecewiseLinear
	if err := pl.Fit(c.Times, o.converted(c)); err != nil {
		return out
	}
	for i, m := range f.Selection.Markers {
		out[i] = pl.Predict(m.Time)
	}
	return out
}

func title(clipName string, f footsync.FootReport) string {
	return fmt.Sprintf("%s - %s (%s)", clipName, f.Label, f.Foot.Bone)
}
