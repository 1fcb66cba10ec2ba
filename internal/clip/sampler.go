package clip

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footsync/internal/contact"
)

// Sampler supplies per-frame bone positions. *Clip implements it.
type Sampler interface {
	FrameTimes() []float64
	BoneNames() []string
	BonePosition(bone string, frame int) (r3.Vec, bool)
}

// Trajectory samples foot and pelvis at every frame. Relative positions are
// foot minus pelvis in world space. An empty pelvis leaves Relative nil.
func Trajectory(s Sampler, foot, pelvis string) (contact.Trajectory, error) {
	tr := contact.Trajectory{FootBone: foot, PelvisBone: pelvis}
	times := s.FrameTimes()

	tr.Absolute = make([]contact.Sample, 0, len(times))
	if pelvis != "" {
		tr.Relative = make([]contact.Sample, 0, len(times))
	}

	for i, t := range times {
		fp, ok := s.BonePosition(foot, i)
		if !ok {
			return contact.Trajectory{}, fmt.Errorf("%w: %q", ErrUnknownBone, foot)
		}
		tr.Absolute = append(tr.Absolute, contact.Sample{Time: t, Position: fp})

		if pelvis == "" {
			continue
		}
		pp, ok := s.BonePosition(pelvis, i)
		if !ok {
			return contact.Trajectory{}, fmt.Errorf("%w: %q", ErrUnknownBone, pelvis)
		}
		tr.Relative = append(tr.Relative, contact.Sample{Time: t, Position: r3.Sub(fp, pp)})
	}
	return tr, nil
}
