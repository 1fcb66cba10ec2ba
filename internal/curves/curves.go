// Package curves derives per-frame distance and velocity curves for a foot
// relative to the pelvis.
package curves

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footsync/internal/contact"
)

const epsilon = 1e-4

// Options selects which curves to build and how to name them.
type Options struct {
	Distance       bool   `json:"distance"`
	Velocity       bool   `json:"velocity"`
	DistanceSuffix string `json:"distance_suffix"`
	VelocitySuffix string `json:"velocity_suffix"`
}

// DefaultOptions matches config/tuning.defaults.json.
func DefaultOptions() Options {
	return Options{
		Distance:       true,
		Velocity:       false,
		DistanceSuffix: "_Distance",
		VelocitySuffix: "_Velocity",
	}
}

// Enabled reports whether any curve is requested.
func (o Options) Enabled() bool { return o.Distance || o.Velocity }

// Kind says what a curve measures.
type Kind string

const (
	KindDistance Kind = "distance" // cm along the move axis
	KindVelocity Kind = "velocity" // cm/s
)

// Curve is a named float curve keyed by time.
type Curve struct {
	Name   string    `json:"name"`
	Kind   Kind      `json:"kind"`
	Times  []float64 `json:"times"`
	Values []float64 `json:"values"`
}

// Distance projects each pelvis-relative position onto axis.
func Distance(rel []contact.Sample, axis r3.Vec) []float64 {
	out := make([]float64, len(rel))
	for i, s := range rel {
		out[i] = r3.Dot(s.Position, axis)
	}
	return out
}

// Velocity is the backward-difference speed of the pelvis-relative position.
// The first frame and frames with no elapsed time read 0.
func Velocity(rel []contact.Sample) []float64 {
	out := make([]float64, len(rel))
	for i := 1; i < len(rel); i++ {
		dt := rel[i].Time - rel[i-1].Time
		if dt <= epsilon {
			continue
		}
		out[i] = r3.Norm(r3.Sub(rel[i].Position, rel[i-1].Position)) / dt
	}
	return out
}

// Build returns the requested curves for one foot, named label+suffix.
// Fewer than two samples yields no curves.
func Build(label string, rel []contact.Sample, axis r3.Vec, opts Options) []Curve {
	if len(rel) <= 1 || !opts.Enabled() {
		return nil
	}
	times := make([]float64, len(rel))
	for i, s := range rel {
		times[i] = s.Time
	}

	var out []Curve
	if opts.Distance {
		out = append(out, Curve{Name: label + opts.DistanceSuffix, Kind: KindDistance, Times: times, Values: Distance(rel, axis)})
	}
	if opts.Velocity {
		out = append(out, Curve{Name: label + opts.VelocitySuffix, Kind: KindVelocity, Times: times, Values: Velocity(rel)})
	}
	return out
}
