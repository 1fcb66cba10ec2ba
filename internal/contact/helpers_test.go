package contact

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// projected builds relative samples whose X component carries the given
// projections at the given times.
func projected(times, xs []float64) Trajectory {
	tr := Trajectory{FootBone: "foot_l", PelvisBone: "pelvis"}
	for i := range times {
		tr.Relative = append(tr.Relative, Sample{Time: times[i], Position: r3.Vec{X: xs[i]}})
	}
	return tr
}

// world builds absolute samples at the given times.
func world(times []float64, pts ...r3.Vec) Trajectory {
	tr := Trajectory{FootBone: "foot_l", PelvisBone: "pelvis"}
	for i := range times {
		tr.Absolute = append(tr.Absolute, Sample{Time: times[i], Position: pts[i]})
	}
	return tr
}

func evenTimes(n int, dt float64) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * dt
	}
	return times
}

// gait synthesises a one-second walk cycle for a single foot sampled at fps:
// the foot swings ±20cm around a pelvis that advances at 100cm/s and lifts
// during the forward half of the cycle.
func gait(fps int) Trajectory {
	tr := Trajectory{FootBone: "foot_l", PelvisBone: "pelvis"}
	frames := fps + 1
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(fps)
		phase := 2 * math.Pi * t
		rel := r3.Vec{X: 20 * math.Sin(phase), Y: 10}
		lift := 5 * math.Max(0, math.Cos(phase))
		pelvis := r3.Vec{X: 100 * t}
		abs := r3.Add(pelvis, rel)
		abs.Z = lift

		tr.Relative = append(tr.Relative, Sample{Time: t, Position: rel})
		tr.Absolute = append(tr.Absolute, Sample{Time: t, Position: abs})
	}
	return tr
}
