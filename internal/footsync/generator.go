// Package footsync runs contact detection, marker selection and curve
// generation for every foot of a preset and collects the outcome in a Report.
package footsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footsync/internal/clip"
	"github.com/banshee-data/footsync/internal/contact"
	"github.com/banshee-data/footsync/internal/curves"
	"github.com/banshee-data/footsync/internal/markers"
	"github.com/banshee-data/footsync/internal/monitoring"
	"github.com/banshee-data/footsync/internal/preset"
)

// ErrInvalidPreset is returned when a preset has no pelvis or no feet.
var ErrInvalidPreset = errors.New("preset needs a pelvis bone and at least one foot")

// Options configures a Generator.
type Options struct {
	Method    contact.Method
	Params    contact.Params
	Selection markers.Options
	Curves    curves.Options

	// Per-run threshold overrides applied to each detector instance.
	VelocityThreshold *float64
	SaliencyThreshold *float64
}

// DefaultOptions runs the composite detector with the package defaults of
// contact, markers and curves.
func DefaultOptions() Options {
	return Options{
		Method:    contact.Composite,
		Params:    contact.DefaultParams(),
		Selection: markers.DefaultOptions(),
		Curves:    curves.DefaultOptions(),
	}
}

// FootReport is the outcome for one foot.
type FootReport struct {
	Foot      preset.FootDefinition `json:"foot"`
	Label     string                `json:"label"`
	Results   []contact.Result      `json:"results"`
	Selection markers.Selection     `json:"selection"`
	Curves    []curves.Curve        `json:"curves,omitempty"`
	Err       string                `json:"error,omitempty"`
}

// Report is the outcome for one clip.
type Report struct {
	Clip     string         `json:"clip"`
	Method   contact.Method `json:"method"`
	Preset   preset.Preset  `json:"preset"`
	Duration float64        `json:"duration"`
	Feet     []FootReport   `json:"feet"`
}

// MarkerCount totals the selected markers over all feet.
func (r *Report) MarkerCount() int {
	n := 0
	for _, f := range r.Feet {
		n += len(f.Selection.Markers)
	}
	return n
}

// Generator analyses clips. It is safe for concurrent use; every foot gets
// its own detector instance.
type Generator struct {
	opts        Options
	newDetector func(contact.Method) (contact.Detector, error)
}

// NewGenerator returns a Generator that builds detectors with contact.New.
func NewGenerator(opts Options) *Generator {
	return &Generator{opts: opts, newDetector: contact.New}
}

// Options returns the generator's configuration.
func (g *Generator) Options() Options { return g.opts }

// detector builds the configured detector, falling back to Composite when
// the method is unknown.
func (g *Generator) detector() contact.Detector {
	d, err := g.newDetector(g.opts.Method)
	if err != nil {
		monitoring.Logf("[footsync] %v, using %s", err, contact.Composite)
		d = contact.NewCompositeDetector()
	}
	if g.opts.VelocityThreshold != nil {
		d.SetVelocityThreshold(*g.opts.VelocityThreshold)
	}
	if g.opts.SaliencyThreshold != nil {
		d.SetSaliencyThreshold(*g.opts.SaliencyThreshold)
	}
	return d
}

// detectionParams resolves the move axis used for pelvis crossings: an
// explicitly configured axis wins, flying presets use their tilted axis, and
// everything else is left to auto-detection.
func (g *Generator) detectionParams(p preset.Preset) contact.Params {
	params := g.opts.Params
	if params.MoveAxis == (r3.Vec{}) && p.Type == preset.HumanoidFlying {
		params.MoveAxis = p.MoveAxis
	}
	return params
}

// Run analyses every foot of p. Feet with an empty bone are skipped. Feet
// run concurrently; the report keeps preset order.
func (g *Generator) Run(ctx context.Context, name string, s clip.Sampler, p preset.Preset) (*Report, error) {
	if !p.Valid() {
		return nil, ErrInvalidPreset
	}
	// Distance curves are projections onto the move axis; a zero axis would flatten them.
	if p.MoveAxis == (r3.Vec{}) {
		p.MoveAxis = preset.ForwardAxis
	}
	times := s.FrameTimes()
	report := &Report{Clip: name, Method: g.opts.Method, Preset: p}
	if !report.Method.Valid() {
		report.Method = contact.Composite
	}
	if len(times) > 0 {
		report.Duration = times[len(times)-1]
	}

	params := g.detectionParams(p)

	var feet []preset.FootDefinition
	for _, f := range p.Feet {
		if f.Bone == "" {
			monitoring.Logf("[footsync] %s: skipping foot %q with empty bone name", name, f.MarkerName)
			continue
		}
		feet = append(feet, f)
	}

	out := make([]FootReport, len(feet))
	var wg sync.WaitGroup
	for i, f := range feet {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int, f preset.FootDefinition) {
			defer wg.Done()
			out[i] = g.analyseFoot(name, s, p, f, params)
		}(i, f)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.Feet = out
	return report, nil
}

func (g *Generator) analyseFoot(name string, s clip.Sampler, p preset.Preset, f preset.FootDefinition, params contact.Params) FootReport {
	fr := FootReport{Foot: f, Label: f.DisplayLabel(), Results: []contact.Result{}}

	tr, err := clip.Trajectory(s, f.Bone, p.PelvisBone)
	if err != nil {
		fr.Err = fmt.Sprintf("failed to sample foot: %v", err)
		monitoring.Logf("[footsync] %s: foot %s: %s", name, f.Bone, fr.Err)
		fr.Selection = markers.Select(nil, g.opts.Selection)
		return fr
	}

	fr.Results = g.detector().Detect(tr, params)
	fr.Selection = markers.Select(fr.Results, g.opts.Selection)

	monitoring.Logf("[footsync] %s: foot %s: detected %d contacts, confident %d, filtered to %d markers",
		name, f.Bone, fr.Selection.Contacts, fr.Selection.Confident, len(fr.Selection.Markers))
	if fr.Selection.LowConfidence {
		monitoring.Logf("[footsync] %s: foot %s: no contacts above %.2f, using best confidence %.2f",
			name, f.Bone, g.opts.Selection.MinConfidence, fr.Selection.Markers[0].Confidence)
	}

	fr.Curves = curves.Build(fr.Label, tr.Relative, p.MoveAxis, g.opts.Curves)
	return fr
}
