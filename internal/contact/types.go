package contact

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// epsilon guards every denominator in this package.
const epsilon = 1e-4

// ErrUnknownMethod is returned when a detection method name or value is not recognised.
var ErrUnknownMethod = errors.New("unknown detection method")

// Method tags the provenance of a Result.
type Method int

const (
	PelvisCrossing Method = iota
	VelocityCurve
	Saliency
	// Composite is only ever produced by fusion.
	Composite
)

var methodNames = [...]string{
	PelvisCrossing: "pelvis_crossing",
	VelocityCurve:  "velocity_curve",
	Saliency:       "saliency",
	Composite:      "composite",
}

// String returns the snake_case name used in config files, the CLI and the run store.
func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("method(%d)", int(m))
	}
	return methodNames[m]
}

// Valid reports whether m names a detection method.
func (m Method) Valid() bool { return m >= 0 && int(m) < len(methodNames) }

// ParseMethod maps a method name back to its Method.
func ParseMethod(s string) (Method, error) {
	for i, name := range methodNames {
		if name == s {
			return Method(i), nil
		}
	}
	return Composite, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(methodNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(m))
	}
	return []byte(methodNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Sample is one evaluated frame of a bone position.
type Sample struct {
	Time     float64
	Position r3.Vec
}

// Trajectory holds everything a detector needs for one foot.
// Relative positions are foot minus pelvis; Absolute positions are world space.
// Both slices are ordered by strictly increasing time.
type Trajectory struct {
	FootBone   string
	PelvisBone string
	Relative   []Sample
	Absolute   []Sample
}

// Result is a single detected contact (IsContact) or lift-off event.
type Result struct {
	Time       float64 `json:"time"`
	Confidence float64 `json:"confidence"`
	IsContact  bool    `json:"is_contact"`
	Source     Method  `json:"source"`
}

// Weights scales each leaf detector inside the composite.
// A weight at or below epsilon disables that detector.
type Weights struct {
	Pelvis   float64 `json:"pelvis"`
	Velocity float64 `json:"velocity"`
	Saliency float64 `json:"saliency"`
}

// For returns the weight applied to results tagged with m.
// Composite-tagged results weigh 1.
func (w Weights) For(m Method) float64 {
	switch m {
	case PelvisCrossing:
		return w.Pelvis
	case VelocityCurve:
		return w.Velocity
	case Saliency:
		return w.Saliency
	default:
		return 1
	}
}

// Params carries the numeric tuning consumed by the detectors.
// It is passed by value into every Detect call.
type Params struct {
	// MoveAxis projects pelvis-relative positions. The zero vector selects
	// X or Y automatically from the trajectory's range.
	MoveAxis r3.Vec

	ConfidenceScale        float64 // cm of swing for full crossing confidence
	LoopBoundaryConfidence float64

	VelocityThreshold         float64 // cm/s
	VelocityDefaultConfidence float64

	SaliencyWindowSize        float64 // seconds
	SaliencyThreshold         float64 // fraction between mean and max derivative
	SaliencyMinConfidence     float64
	SaliencyDefaultConfidence float64

	MergeThreshold  float64 // seconds from cluster anchor
	AgreementBonus  float64
	// MinimumInterval is carried for callers that select markers from the
	// results; no detector reads it. markers.Options.MinimumInterval is the
	// value that is enforced, and config fills both from one key.
	MinimumInterval float64 // seconds between kept markers

	Weights Weights
}

// DefaultParams returns the tuning values shipped in config/tuning.defaults.json.
func DefaultParams() Params {
	return Params{
		ConfidenceScale:           50.0,
		LoopBoundaryConfidence:    0.7,
		VelocityThreshold:         5.0,
		VelocityDefaultConfidence: 0.5,
		SaliencyWindowSize:        0.1,
		SaliencyThreshold:         0.5,
		SaliencyMinConfidence:     0.3,
		SaliencyDefaultConfidence: 0.5,
		MergeThreshold:            0.05,
		AgreementBonus:            0.1,
		MinimumInterval:           0.1,
		Weights: Weights{
			Pelvis:   0.4,
			Velocity: 0.3,
			Saliency: 0.3,
		},
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
