// Package preset describes which bones of a skeleton are analysed as feet and
// how their sync markers are named.
package preset

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnknownLocomotion is returned by ParseLocomotionType.
var ErrUnknownLocomotion = errors.New("unknown locomotion type")

// LocomotionType selects how feet are discovered on a skeleton.
type LocomotionType int

const (
	Bipedal LocomotionType = iota
	HumanoidFlying
	Quadruped
	Custom
)

var locomotionNames = [...]string{
	Bipedal:        "bipedal",
	HumanoidFlying: "humanoid_flying",
	Quadruped:      "quadruped",
	Custom:         "custom",
}

func (t LocomotionType) String() string {
	if t < 0 || int(t) >= len(locomotionNames) {
		return fmt.Sprintf("LocomotionType(%d)", int(t))
	}
	return locomotionNames[t]
}

// ParseLocomotionType accepts the names produced by String.
func ParseLocomotionType(s string) (LocomotionType, error) {
	for i, name := range locomotionNames {
		if strings.EqualFold(s, name) {
			return LocomotionType(i), nil
		}
	}
	return Bipedal, fmt.Errorf("%w: %q", ErrUnknownLocomotion, s)
}

func (t LocomotionType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *LocomotionType) UnmarshalText(b []byte) error {
	v, err := ParseLocomotionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// FootLabel identifies a foot within a preset.
type FootLabel int

const (
	Left FootLabel = iota
	Right
	FrontLeft
	FrontRight
	BackLeft
	BackRight
	CustomLabel
)

var labelNames = [...]string{
	Left:        "Left",
	Right:       "Right",
	FrontLeft:   "FrontLeft",
	FrontRight:  "FrontRight",
	BackLeft:    "BackLeft",
	BackRight:   "BackRight",
	CustomLabel: "Custom",
}

func (l FootLabel) String() string {
	if l < 0 || int(l) >= len(labelNames) {
		return fmt.Sprintf("FootLabel(%d)", int(l))
	}
	return labelNames[l]
}

func (l FootLabel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *FootLabel) UnmarshalText(b []byte) error {
	for i, name := range labelNames {
		if strings.EqualFold(string(b), name) {
			*l = FootLabel(i)
			return nil
		}
	}
	return fmt.Errorf("unknown foot label %q", string(b))
}

// FootDefinition binds a skeleton bone to a marker name.
type FootDefinition struct {
	Bone        string    `json:"bone"`
	MarkerName  string    `json:"marker_name"`
	Label       FootLabel `json:"label"`
	CustomLabel string    `json:"custom_label,omitempty"`
}

// DisplayLabel is the label used in curve names and reports.
func (f FootDefinition) DisplayLabel() string {
	if f.Label == CustomLabel {
		return f.CustomLabel
	}
	return f.Label.String()
}

// MarkerNameSettings builds marker names as prefix+suffix.
type MarkerNameSettings struct {
	Prefix           string `json:"prefix"`
	LeftSuffix       string `json:"left_suffix"`
	RightSuffix      string `json:"right_suffix"`
	FrontLeftSuffix  string `json:"front_left_suffix"`
	FrontRightSuffix string `json:"front_right_suffix"`
	BackLeftSuffix   string `json:"back_left_suffix"`
	BackRightSuffix  string `json:"back_right_suffix"`
}

// DefaultMarkerNames yields FootDown_L, FootDown_R and so on.
func DefaultMarkerNames() MarkerNameSettings {
	return MarkerNameSettings{
		Prefix:           "FootDown",
		LeftSuffix:       "_L",
		RightSuffix:      "_R",
		FrontLeftSuffix:  "_FL",
		FrontRightSuffix: "_FR",
		BackLeftSuffix:   "_BL",
		BackRightSuffix:  "_BR",
	}
}

// MarkerName returns the marker name for label. Custom labels get the bare prefix.
func (m MarkerNameSettings) MarkerName(label FootLabel) string {
	var suffix string
	switch label {
	case Left:
		suffix = m.LeftSuffix
	case Right:
		suffix = m.RightSuffix
	case FrontLeft:
		suffix = m.FrontLeftSuffix
	case FrontRight:
		suffix = m.FrontRightSuffix
	case BackLeft:
		suffix = m.BackLeftSuffix
	case BackRight:
		suffix = m.BackRightSuffix
	}
	return m.Prefix + suffix
}

// Preset is the set of feet analysed for one clip.
type Preset struct {
	Type       LocomotionType   `json:"type"`
	PelvisBone string           `json:"pelvis_bone"`
	Feet       []FootDefinition `json:"feet"`
	MoveAxis   r3.Vec           `json:"move_axis"`
}

// Valid reports whether the preset names a pelvis and at least one foot.
func (p Preset) Valid() bool {
	return p.PelvisBone != "" && len(p.Feet) > 0
}
