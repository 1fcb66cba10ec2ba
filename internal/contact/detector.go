package contact

import "fmt"

// Detector is the capability shared by the four detection algorithms.
// The set of implementations is closed: PelvisCrossingDetector,
// VelocityCurveDetector, SaliencyDetector and CompositeDetector.
//
// A Detector may carry a threshold override, set once before use.
// Instances are single-owner; give each concurrent analysis its own.
type Detector interface {
	// Method returns the tag this detector stamps on its results.
	Method() Method

	// Detect returns the events found in tr. Results are not guaranteed to
	// be sorted unless the detector documents otherwise.
	Detect(tr Trajectory, p Params) []Result

	// SetVelocityThreshold overrides Params.VelocityThreshold for this instance.
	// Detectors that do not use it ignore the call.
	SetVelocityThreshold(threshold float64)

	// SetSaliencyThreshold overrides Params.SaliencyThreshold for this instance.
	// Detectors that do not use it ignore the call.
	SetSaliencyThreshold(threshold float64)

	sealed()
}

// Ensure the closed set implements Detector
var (
	_ Detector = (*PelvisCrossingDetector)(nil)
	_ Detector = (*VelocityCurveDetector)(nil)
	_ Detector = (*SaliencyDetector)(nil)
	_ Detector = (*CompositeDetector)(nil)
)

// New creates a detector for m. Composite detectors read their weights from
// the Params passed to Detect.
func New(m Method) (Detector, error) {
	switch m {
	case PelvisCrossing:
		return &PelvisCrossingDetector{}, nil
	case VelocityCurve:
		return &VelocityCurveDetector{}, nil
	case Saliency:
		return &SaliencyDetector{}, nil
	case Composite:
		return NewCompositeDetector(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(m))
	}
}

// thresholdOverride holds an optional per-instance replacement for a Params threshold.
type thresholdOverride struct {
	value float64
	set   bool
}

func (o *thresholdOverride) apply(v float64) {
	o.value = v
	o.set = true
}

func (o thresholdOverride) or(fallback float64) float64 {
	if o.set {
		return o.value
	}
	return fallback
}
