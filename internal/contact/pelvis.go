package contact

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Movement axes selected by auto-detection.
var (
	ForwardAxis = r3.Vec{X: 1}
	RightAxis   = r3.Vec{Y: 1}
)

// PelvisCrossingDetector finds times where the foot crosses the pelvis line,
// i.e. its pelvis-relative coordinate along the movement axis changes sign.
type PelvisCrossingDetector struct{}

func (*PelvisCrossingDetector) sealed() {}

// Method returns PelvisCrossing.
func (*PelvisCrossingDetector) Method() Method { return PelvisCrossing }

// SetVelocityThreshold is a no-op; pelvis crossing has no velocity threshold.
func (*PelvisCrossingDetector) SetVelocityThreshold(float64) {}

// SetSaliencyThreshold is a no-op; pelvis crossing has no saliency threshold.
func (*PelvisCrossingDetector) SetSaliencyThreshold(float64) {}

// Detect reads tr.Relative. Results from consecutive frames are in time
// order; a loop-boundary result, when present, is appended last.
func (d *PelvisCrossingDetector) Detect(tr Trajectory, p Params) []Result {
	results := []Result{}
	if tr.FootBone == "" || tr.PelvisBone == "" || len(tr.Relative) < 2 {
		return results
	}

	axis := p.MoveAxis
	if axis == (r3.Vec{}) {
		axis = PrimaryMoveAxis(tr.Relative)
	}

	pos := make([]float64, len(tr.Relative))
	for i, s := range tr.Relative {
		pos[i] = r3.Dot(s.Position, axis)
	}

	for i := 1; i < len(pos); i++ {
		p1, p2 := pos[i-1], pos[i]
		if p1*p2 >= 0 {
			continue
		}
		t1, t2 := tr.Relative[i-1].Time, tr.Relative[i].Time
		results = append(results, Result{
			Time:       crossingTime(t1, p1, t2, p2),
			Confidence: clamp(math.Abs(p2-p1)/p.ConfidenceScale, 0.5, 1.0),
			IsContact:  p1 < 0 && p2 > 0,
			Source:     PelvisCrossing,
		})
	}

	// Looping clips may cross across the seam between last and first frame.
	first, last := pos[0], pos[len(pos)-1]
	if first*last < 0 {
		results = append(results, Result{
			Time:       tr.Relative[len(tr.Relative)-1].Time,
			Confidence: clamp(p.LoopBoundaryConfidence, 0, 1),
			IsContact:  last < 0 && first > 0,
			Source:     PelvisCrossing,
		})
	}

	return results
}

// PrimaryMoveAxis picks ForwardAxis or RightAxis, whichever spans the larger
// range of the samples. Ties and short inputs choose ForwardAxis.
func PrimaryMoveAxis(samples []Sample) r3.Vec {
	if len(samples) < 2 {
		return ForwardAxis
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		minX = math.Min(minX, s.Position.X)
		maxX = math.Max(maxX, s.Position.X)
		minY = math.Min(minY, s.Position.Y)
		maxY = math.Max(maxY, s.Position.Y)
	}

	if maxY-minY > maxX-minX {
		return RightAxis
	}
	return ForwardAxis
}

// crossingTime linearly interpolates where the position passes zero,
// clamped into [t1, t2].
func crossingTime(t1, p1, t2, p2 float64) float64 {
	dp := p2 - p1
	if math.Abs(dp) < epsilon {
		return (t1 + t2) * 0.5
	}
	t := t1 + (0-p1)*(t2-t1)/dp
	return clamp(t, t1, t2)
}
