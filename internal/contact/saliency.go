package contact

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// heightWindow is the number of samples averaged on each side of a salient
// point when classifying contact versus lift-off.
const heightWindow = 2

// SaliencyDetector finds points where the curvature of the foot's world
// trajectory changes rapidly, marking transitions between planted and swing
// phases.
type SaliencyDetector struct {
	threshold thresholdOverride
}

func (*SaliencyDetector) sealed() {}

// Method returns Saliency.
func (*SaliencyDetector) Method() Method { return Saliency }

// SetVelocityThreshold is a no-op.
func (*SaliencyDetector) SetVelocityThreshold(float64) {}

// SetSaliencyThreshold replaces Params.SaliencyThreshold for this instance.
func (d *SaliencyDetector) SetSaliencyThreshold(threshold float64) {
	d.threshold.apply(threshold)
}

// Detect reads tr.Absolute. Results are in ascending time order.
func (d *SaliencyDetector) Detect(tr Trajectory, p Params) []Result {
	results := []Result{}
	if tr.FootBone == "" || len(tr.Absolute) < 4 {
		return results
	}

	curvatures := Curvatures(tr.Absolute)
	if len(curvatures) < 3 {
		return results
	}

	times := make([]float64, len(tr.Absolute))
	for i, s := range tr.Absolute {
		times[i] = s.Time
	}

	threshold := d.threshold.or(p.SaliencyThreshold)
	salient := SalientPoints(curvatures, times, p.SaliencyWindowSize, threshold)
	maxCurvature := floats.Max(curvatures)

	for _, i := range salient {
		confidence := p.SaliencyDefaultConfidence
		if maxCurvature > epsilon {
			confidence = clamp(curvatures[i]/maxCurvature, p.SaliencyMinConfidence, 1.0)
		}
		results = append(results, Result{
			Time:       times[i],
			Confidence: clamp(confidence, 0, 1),
			IsContact:  isFootContact(tr.Absolute, i),
			Source:     Saliency,
		})
	}
	return results
}

// Curvatures returns the Menger curvature at each sample. The first and last
// samples have no neighbours on one side and are zero. Fewer than three
// samples yields nil.
func Curvatures(samples []Sample) []float64 {
	n := len(samples)
	if n < 3 {
		return nil
	}
	k := make([]float64, n)
	for i := 1; i < n-1; i++ {
		k[i] = mengerCurvature(samples[i-1].Position, samples[i].Position, samples[i+1].Position)
	}
	return k
}

// mengerCurvature is 4*area / (|P0P1| * |P1P2| * |P2P0|), with twice the
// triangle area given by |cross(P1-P0, P2-P0)|.
func mengerCurvature(p0, p1, p2 r3.Vec) float64 {
	v1 := r3.Sub(p1, p0)
	v2 := r3.Sub(p2, p0)
	v3 := r3.Sub(p2, p1)

	denom := r3.Norm(v1) * r3.Norm(v3) * r3.Norm(v2)
	if denom < epsilon {
		return 0
	}
	return 2 * r3.Norm(r3.Cross(v1, v2)) / denom
}

// SalientPoints returns ascending indices of interior samples that are
// curvature peaks or sit next to a curvature derivative above the adaptive
// threshold mean + threshold*(max-mean). A candidate within windowSize
// seconds of an already accepted point is dropped.
func SalientPoints(curvatures, times []float64, windowSize, threshold float64) []int {
	n := len(curvatures)
	if n < 3 || len(times) != n {
		return nil
	}

	deriv := make([]float64, n)
	for i := 1; i < n; i++ {
		dt := times[i] - times[i-1]
		if dt > epsilon {
			deriv[i] = math.Abs(curvatures[i]-curvatures[i-1]) / dt
		}
	}

	mean := stat.Mean(deriv, nil)
	adaptive := mean + threshold*(floats.Max(deriv)-mean)

	var salient []int
	for i := 1; i < n-1; i++ {
		peak := curvatures[i] > curvatures[i-1] && curvatures[i] > curvatures[i+1]
		steep := deriv[i] > adaptive || deriv[i+1] > adaptive
		if !peak && !steep {
			continue
		}

		tooClose := false
		for _, j := range salient {
			if math.Abs(times[i]-times[j]) < windowSize {
				tooClose = true
				break
			}
		}
		if !tooClose {
			salient = append(salient, i)
		}
	}
	return salient
}

// isFootContact compares the mean height (Z) of up to heightWindow samples
// on either side of idx with the height at idx. Descending into the point,
// or not rising after it, counts as contact. Endpoints default to contact.
func isFootContact(samples []Sample, idx int) bool {
	if idx <= 0 || idx >= len(samples)-1 {
		return true
	}

	start := max(0, idx-heightWindow)
	end := min(len(samples)-1, idx+heightWindow)

	before := 0.0
	for i := start; i < idx; i++ {
		before += samples[i].Position.Z
	}
	before /= float64(idx - start)

	after := 0.0
	for i := idx + 1; i <= end; i++ {
		after += samples[i].Position.Z
	}
	after /= float64(end - idx)

	at := samples[idx].Position.Z
	wasDescending := before > at
	willRise := after > at
	return wasDescending || !willRise
}
