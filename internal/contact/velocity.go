package contact

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// VelocityCurveDetector finds frames where foot speed reaches a local
// minimum below a threshold. It only reports contacts, never lift-offs.
type VelocityCurveDetector struct {
	threshold thresholdOverride
}

func (*VelocityCurveDetector) sealed() {}

// Method returns VelocityCurve.
func (*VelocityCurveDetector) Method() Method { return VelocityCurve }

// SetVelocityThreshold replaces Params.VelocityThreshold for this instance.
func (d *VelocityCurveDetector) SetVelocityThreshold(threshold float64) {
	d.threshold.apply(threshold)
}

// SetSaliencyThreshold is a no-op.
func (*VelocityCurveDetector) SetSaliencyThreshold(float64) {}

// Detect reads tr.Absolute. Results are in ascending time order.
func (d *VelocityCurveDetector) Detect(tr Trajectory, p Params) []Result {
	results := []Result{}
	if tr.FootBone == "" || len(tr.Absolute) < 3 {
		return results
	}

	speeds := Speeds(tr.Absolute)
	threshold := d.threshold.or(p.VelocityThreshold)
	maxSpeed := floats.Max(speeds)

	for _, i := range LocalMinima(speeds, threshold) {
		confidence := p.VelocityDefaultConfidence
		if maxSpeed > epsilon {
			confidence = 1.0 - clamp(speeds[i]/maxSpeed, 0, 0.9)
		}
		results = append(results, Result{
			Time:       tr.Absolute[i].Time,
			Confidence: clamp(confidence, 0, 1),
			IsContact:  true,
			Source:     VelocityCurve,
		})
	}
	return results
}

// Speeds returns per-sample speed from finite differences: forward at the
// first sample, backward at the last and central elsewhere. A time step
// below epsilon yields zero speed.
func Speeds(samples []Sample) []float64 {
	n := len(samples)
	speeds := make([]float64, n)
	if n < 2 {
		return speeds
	}

	for i := range samples {
		lo, hi := i-1, i+1
		switch i {
		case 0:
			lo = 0
		case n - 1:
			hi = n - 1
		}
		dt := samples[hi].Time - samples[lo].Time
		if dt > epsilon {
			speeds[i] = r3.Norm(r3.Sub(samples[hi].Position, samples[lo].Position)) / dt
		}
	}
	return speeds
}

// LocalMinima returns ascending indices of speed minima below threshold.
// Interior samples qualify when strictly lower than both neighbours or on
// the edge of a plateau (not higher on one side, strictly lower on the
// other). The first and last samples qualify when lower than their only
// neighbour.
func LocalMinima(speeds []float64, threshold float64) []int {
	n := len(speeds)
	if n < 3 {
		return nil
	}

	var minima []int
	if speeds[0] < threshold && speeds[0] < speeds[1] {
		minima = append(minima, 0)
	}

	for i := 1; i < n-1; i++ {
		prev, curr, next := speeds[i-1], speeds[i], speeds[i+1]
		if curr >= threshold {
			continue
		}
		if (curr < prev && curr < next) ||
			(curr <= prev && curr < next) ||
			(curr < prev && curr <= next) {
			minima = append(minima, i)
		}
	}

	if speeds[n-1] < threshold && speeds[n-1] < speeds[n-2] {
		minima = append(minima, n-1)
	}
	return minima
}
