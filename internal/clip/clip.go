// Package clip reads baked animation clips and serves their bone positions
// to the contact detectors.
//
// A clip file is JSON:
//
//	{
//	  "name": "walk_01",
//	  "frame_rate": 30,
//	  "bones": ["root", "pelvis", "foot_l", "foot_r"],
//	  "frames": [
//	    {"time": 0, "bones": {"pelvis": {"x": 0, "y": 0, "z": 95}, ...}},
//	    ...
//	  ]
//	}
//
// Positions are world space in centimetres with Z up. "bones" lists the
// skeleton in hierarchy order, which is the order bone matching walks.
// A frame without "time" is placed at index/frame_rate.
package clip

import (
	"encoding/json"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footsync/internal/fsutil"
)

// MaxFileSize bounds clip files accepted by Load.
const MaxFileSize = 64 * 1024 * 1024

var (
	ErrNoFrames    = errors.New("clip has no frames")
	ErrNoBones     = errors.New("clip lists no bones")
	ErrUnknownBone = errors.New("bone not in clip")
)

type vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type frameJSON struct {
	Time  *float64        `json:"time,omitempty"`
	Bones map[string]vec3 `json:"bones"`
}

type fileJSON struct {
	Name      string      `json:"name"`
	FrameRate float64     `json:"frame_rate"`
	Bones     []string    `json:"bones"`
	Frames    []frameJSON `json:"frames"`
}

// Clip is a validated, fully sampled animation.
type Clip struct {
	Name      string
	FrameRate float64

	bones     []string
	times     []float64
	positions map[string][]r3.Vec
}

// Parse decodes and validates clip JSON.
func Parse(data []byte) (*Clip, error) {
	var f fileJSON
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse clip JSON: %w", err)
	}
	if len(f.Frames) == 0 {
		return nil, ErrNoFrames
	}
	if len(f.Bones) == 0 {
		return nil, ErrNoBones
	}

	c := &Clip{
		Name:      f.Name,
		FrameRate: f.FrameRate,
		bones:     append([]string(nil), f.Bones...),
		times:     make([]float64, len(f.Frames)),
		positions: make(map[string][]r3.Vec, len(f.Bones)),
	}
	for _, b := range f.Bones {
		if _, dup := c.positions[b]; dup {
			return nil, fmt.Errorf("bone %q listed twice", b)
		}
		c.positions[b] = make([]r3.Vec, len(f.Frames))
	}

	for i, fr := range f.Frames {
		if fr.Time != nil {
			c.times[i] = *fr.Time
		} else {
			if f.FrameRate <= 0 {
				return nil, fmt.Errorf("frame %d has no time and frame_rate is %v", i, f.FrameRate)
			}
			c.times[i] = float64(i) / f.FrameRate
		}
		if i > 0 && c.times[i] <= c.times[i-1] {
			return nil, fmt.Errorf("frame %d time %v does not follow %v", i, c.times[i], c.times[i-1])
		}

		for _, b := range f.Bones {
			p, ok := fr.Bones[b]
			if !ok {
				return nil, fmt.Errorf("frame %d is missing bone %q", i, b)
			}
			c.positions[b][i] = r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
		}
	}
	return c, nil
}

// Load reads and parses a clip file.
func Load(fsys fsutil.FileSystem, path string) (*Clip, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat clip: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("clip file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clip: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// FrameTimes returns the sample times in seconds.
func (c *Clip) FrameTimes() []float64 { return c.times }

// BoneNames returns the skeleton bones in hierarchy order.
func (c *Clip) BoneNames() []string { return c.bones }

// NumFrames returns the number of frames.
func (c *Clip) NumFrames() int { return len(c.times) }

// Duration is the time of the last frame.
func (c *Clip) Duration() float64 { return c.times[len(c.times)-1] }

// BonePosition returns the world position of bone at frame i.
func (c *Clip) BonePosition(bone string, i int) (r3.Vec, bool) {
	ps, ok := c.positions[bone]
	if !ok || i < 0 || i >= len(ps) {
		return r3.Vec{}, false
	}
	return ps[i], true
}
