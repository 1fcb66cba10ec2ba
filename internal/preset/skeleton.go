package preset

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// BonePatterns are case-insensitive substrings used to find bones by name.
type BonePatterns struct {
	Pelvis     []string `json:"pelvis"`
	LeftFoot   []string `json:"left_foot"`
	RightFoot  []string `json:"right_foot"`
	FrontLeft  []string `json:"front_left"`
	FrontRight []string `json:"front_right"`
}

// DefaultBonePatterns covers the common naming schemes of humanoid and
// animal rigs. Front feet are often called hands on quadrupeds.
func DefaultBonePatterns() BonePatterns {
	return BonePatterns{
		Pelvis:     []string{"pelvis", "hips", "hip"},
		LeftFoot:   []string{"foot_l", "leftfoot", "left_foot", "l_foot", "foot_left"},
		RightFoot:  []string{"foot_r", "rightfoot", "right_foot", "r_foot", "foot_right"},
		FrontLeft:  []string{"front_foot_l", "frontfoot_l", "hand_l", "paw_fl", "front_paw_l", "lefthand"},
		FrontRight: []string{"front_foot_r", "frontfoot_r", "hand_r", "paw_fr", "front_paw_r", "righthand"},
	}
}

// FindBone returns the first bone, in skeleton order, whose name contains any
// of the patterns. It returns "" when nothing matches.
func FindBone(bones, patterns []string) string {
	for _, bone := range bones {
		name := strings.ToLower(bone)
		for _, p := range patterns {
			if p != "" && strings.Contains(name, strings.ToLower(p)) {
				return bone
			}
		}
	}
	return ""
}

// Builder creates presets for a skeleton's bone list.
type Builder struct {
	Patterns        BonePatterns
	Names           MarkerNameSettings
	FlyingMoveAxisZ float64
}

// DefaultBuilder matches bones with DefaultBonePatterns and names markers FootDown_<side>.
func DefaultBuilder() Builder {
	return Builder{
		Patterns:        DefaultBonePatterns(),
		Names:           DefaultMarkerNames(),
		FlyingMoveAxisZ: 0.3,
	}
}

// ForwardAxis is the default move axis of every generated preset.
var ForwardAxis = r3.Vec{X: 1}

// FlyingMoveAxis tilts the forward axis upward by z and normalises it.
func FlyingMoveAxis(z float64) r3.Vec {
	return r3.Unit(r3.Vec{X: 1, Z: z})
}

// ForSkeleton builds a preset of the given type. Feet whose bones cannot be
// found are omitted, so the result may be invalid. Custom yields only the
// pelvis; callers supply the feet.
func (b Builder) ForSkeleton(bones []string, t LocomotionType) Preset {
	p := Preset{
		Type:       t,
		PelvisBone: FindBone(bones, b.Patterns.Pelvis),
		MoveAxis:   ForwardAxis,
	}

	add := func(patterns []string, label FootLabel) {
		bone := FindBone(bones, patterns)
		if bone == "" {
			return
		}
		p.Feet = append(p.Feet, FootDefinition{
			Bone:       bone,
			MarkerName: b.Names.MarkerName(label),
			Label:      label,
		})
	}

	switch t {
	case Bipedal:
		add(b.Patterns.LeftFoot, Left)
		add(b.Patterns.RightFoot, Right)
	case HumanoidFlying:
		add(b.Patterns.LeftFoot, Left)
		add(b.Patterns.RightFoot, Right)
		p.MoveAxis = FlyingMoveAxis(b.FlyingMoveAxisZ)
	case Quadruped:
		add(b.Patterns.FrontLeft, FrontLeft)
		add(b.Patterns.FrontRight, FrontRight)
		add(b.Patterns.LeftFoot, BackLeft)
		add(b.Patterns.RightFoot, BackRight)
	}
	return p
}
