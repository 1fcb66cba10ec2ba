package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footsync/internal/contact"
	"github.com/banshee-data/footsync/internal/curves"
	"github.com/banshee-data/footsync/internal/markers"
	"github.com/banshee-data/footsync/internal/preset"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for detection, marker
// selection and output. Every field is optional; the Get* methods supply
// defaults for anything omitted.
type TuningConfig struct {
	// Detection
	Method         *string   `json:"method,omitempty"`
	PelvisWeight   *float64  `json:"pelvis_weight,omitempty"`
	VelocityWeight *float64  `json:"velocity_weight,omitempty"`
	SaliencyWeight *float64  `json:"saliency_weight,omitempty"`
	MoveAxis       []float64 `json:"move_axis,omitempty"` // [x, y, z]; omitted means auto-detect
	MergeThreshold *float64  `json:"result_merge_threshold,omitempty"`
	AgreementBonus *float64  `json:"detector_agreement_bonus,omitempty"`

	// Pelvis crossing
	PelvisConfidenceScale  *float64 `json:"pelvis_confidence_scale,omitempty"`
	LoopBoundaryConfidence *float64 `json:"loop_boundary_confidence,omitempty"`

	// Velocity curve
	VelocityMinimumThreshold  *float64 `json:"velocity_minimum_threshold,omitempty"`
	VelocityDefaultConfidence *float64 `json:"velocity_default_confidence,omitempty"`

	// Saliency
	SaliencyWindowSize        *float64 `json:"saliency_window_size,omitempty"`
	SaliencyThreshold         *float64 `json:"saliency_threshold,omitempty"`
	SaliencyMinConfidence     *float64 `json:"saliency_min_confidence,omitempty"`
	SaliencyDefaultConfidence *float64 `json:"saliency_default_confidence,omitempty"`

	// Marker selection
	MinimumConfidence     *float64 `json:"minimum_confidence,omitempty"`
	MaxMarkersPerFoot     *int     `json:"max_markers_per_foot,omitempty"`
	GuaranteeMinimumOne   *bool    `json:"guarantee_minimum_one,omitempty"`
	MinimumMarkerInterval *float64 `json:"minimum_marker_interval,omitempty"`

	// Output
	FlyingMoveAxisZ        *float64 `json:"flying_move_axis_z,omitempty"`
	MarkerPrefix           *string  `json:"marker_prefix,omitempty"`
	GenerateDistanceCurves *bool    `json:"generate_distance_curves,omitempty"`
	GenerateVelocityCurves *bool    `json:"generate_velocity_curves,omitempty"`
	DistanceCurveSuffix    *string  `json:"distance_curve_suffix,omitempty"`
	VelocityCurveSuffix    *string  `json:"velocity_curve_suffix,omitempty"`

	// Bone matching (optional, replaces the built-in pattern list)
	PelvisBonePatterns     []string `json:"pelvis_bone_patterns,omitempty"`
	LeftFootBonePatterns   []string `json:"left_foot_bone_patterns,omitempty"`
	RightFootBonePatterns  []string `json:"right_foot_bone_patterns,omitempty"`
	FrontLeftFootPatterns  []string `json:"front_left_foot_patterns,omitempty"`
	FrontRightFootPatterns []string `json:"front_right_foot_patterns,omitempty"`

	// CustomPreset is used when the locomotion type is custom.
	CustomPreset *preset.Preset `json:"custom_preset,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a config with every scalar field populated with
// the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	p := contact.DefaultParams()
	sel := markers.DefaultOptions()
	cur := curves.DefaultOptions()
	return &TuningConfig{
		Method:                    ptrString(contact.Composite.String()),
		PelvisWeight:              ptrFloat64(p.Weights.Pelvis),
		VelocityWeight:            ptrFloat64(p.Weights.Velocity),
		SaliencyWeight:            ptrFloat64(p.Weights.Saliency),
		MergeThreshold:            ptrFloat64(p.MergeThreshold),
		AgreementBonus:            ptrFloat64(p.AgreementBonus),
		PelvisConfidenceScale:     ptrFloat64(p.ConfidenceScale),
		LoopBoundaryConfidence:    ptrFloat64(p.LoopBoundaryConfidence),
		VelocityMinimumThreshold:  ptrFloat64(p.VelocityThreshold),
		VelocityDefaultConfidence: ptrFloat64(p.VelocityDefaultConfidence),
		SaliencyWindowSize:        ptrFloat64(p.SaliencyWindowSize),
		SaliencyThreshold:         ptrFloat64(p.SaliencyThreshold),
		SaliencyMinConfidence:     ptrFloat64(p.SaliencyMinConfidence),
		SaliencyDefaultConfidence: ptrFloat64(p.SaliencyDefaultConfidence),
		MinimumConfidence:         ptrFloat64(sel.MinConfidence),
		MaxMarkersPerFoot:         ptrInt(sel.MaxMarkers),
		GuaranteeMinimumOne:       ptrBool(sel.GuaranteeMinimumOne),
		MinimumMarkerInterval:     ptrFloat64(sel.MinimumInterval),
		FlyingMoveAxisZ:           ptrFloat64(0.3),
		MarkerPrefix:              ptrString(preset.DefaultMarkerNames().Prefix),
		GenerateDistanceCurves:    ptrBool(cur.Distance),
		GenerateVelocityCurves:    ptrBool(cur.Velocity),
		DistanceCurveSuffix:       ptrString(cur.DistanceSuffix),
		VelocityCurveSuffix:       ptrString(cur.VelocitySuffix),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/ or cmd/footsync/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func checkUnit(name string, v *float64) error {
	if v != nil && (*v < 0 || *v > 1) {
		return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
	}
	return nil
}

func checkPositive(name string, v *float64) error {
	if v != nil && *v <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, *v)
	}
	return nil
}

func checkNonNegative(name string, v *float64) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%s must be non-negative, got %f", name, *v)
	}
	return nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.Method != nil {
		if _, err := contact.ParseMethod(*c.Method); err != nil {
			return fmt.Errorf("invalid method: %w", err)
		}
	}

	for _, chk := range []struct {
		name string
		v    *float64
	}{
		{"pelvis_weight", c.PelvisWeight},
		{"velocity_weight", c.VelocityWeight},
		{"saliency_weight", c.SaliencyWeight},
		{"loop_boundary_confidence", c.LoopBoundaryConfidence},
		{"velocity_default_confidence", c.VelocityDefaultConfidence},
		{"saliency_threshold", c.SaliencyThreshold},
		{"saliency_min_confidence", c.SaliencyMinConfidence},
		{"saliency_default_confidence", c.SaliencyDefaultConfidence},
		{"minimum_confidence", c.MinimumConfidence},
		{"detector_agreement_bonus", c.AgreementBonus},
		{"flying_move_axis_z", c.FlyingMoveAxisZ},
	} {
		if err := checkUnit(chk.name, chk.v); err != nil {
			return err
		}
	}

	if err := checkPositive("pelvis_confidence_scale", c.PelvisConfidenceScale); err != nil {
		return err
	}
	for _, chk := range []struct {
		name string
		v    *float64
	}{
		{"velocity_minimum_threshold", c.VelocityMinimumThreshold},
		{"saliency_window_size", c.SaliencyWindowSize},
		{"result_merge_threshold", c.MergeThreshold},
		{"minimum_marker_interval", c.MinimumMarkerInterval},
	} {
		if err := checkNonNegative(chk.name, chk.v); err != nil {
			return err
		}
	}

	if c.MaxMarkersPerFoot != nil && *c.MaxMarkersPerFoot < 0 {
		return fmt.Errorf("max_markers_per_foot must be non-negative, got %d", *c.MaxMarkersPerFoot)
	}

	if c.MoveAxis != nil {
		if len(c.MoveAxis) != 3 {
			return fmt.Errorf("move_axis must have 3 components, got %d", len(c.MoveAxis))
		}
		if r3.Norm(c.moveAxisVec()) == 0 {
			return fmt.Errorf("move_axis must not be the zero vector")
		}
	}

	if c.CustomPreset != nil && !c.CustomPreset.Valid() {
		return fmt.Errorf("custom_preset needs a pelvis_bone and at least one foot")
	}

	return nil
}

func (c *TuningConfig) moveAxisVec() r3.Vec {
	return r3.Vec{X: c.MoveAxis[0], Y: c.MoveAxis[1], Z: c.MoveAxis[2]}
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// GetMethod returns the configured detection method, or Composite.
func (c *TuningConfig) GetMethod() contact.Method {
	if c.Method == nil {
		return contact.Composite
	}
	m, _ := contact.ParseMethod(*c.Method)
	return m
}

// GetWeights returns the composite weights.
func (c *TuningConfig) GetWeights() contact.Weights {
	def := contact.DefaultParams().Weights
	return contact.Weights{
		Pelvis:   floatOr(c.PelvisWeight, def.Pelvis),
		Velocity: floatOr(c.VelocityWeight, def.Velocity),
		Saliency: floatOr(c.SaliencyWeight, def.Saliency),
	}
}

// GetMoveAxis returns the configured move axis normalised, or the zero
// vector when detection should pick the axis itself.
func (c *TuningConfig) GetMoveAxis() r3.Vec {
	if len(c.MoveAxis) != 3 {
		return r3.Vec{}
	}
	v := c.moveAxisVec()
	if r3.Norm(v) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(v)
}

// GetVelocityMinimumThreshold returns the velocity_minimum_threshold value or the default.
func (c *TuningConfig) GetVelocityMinimumThreshold() float64 {
	return floatOr(c.VelocityMinimumThreshold, contact.DefaultParams().VelocityThreshold)
}

// GetSaliencyThreshold returns the saliency_threshold value or the default.
func (c *TuningConfig) GetSaliencyThreshold() float64 {
	return floatOr(c.SaliencyThreshold, contact.DefaultParams().SaliencyThreshold)
}

// GetMinimumConfidence returns the minimum_confidence value or the default.
func (c *TuningConfig) GetMinimumConfidence() float64 {
	return floatOr(c.MinimumConfidence, markers.DefaultOptions().MinConfidence)
}

// GetMaxMarkersPerFoot returns the max_markers_per_foot value or the default.
func (c *TuningConfig) GetMaxMarkersPerFoot() int {
	if c.MaxMarkersPerFoot == nil {
		return markers.DefaultOptions().MaxMarkers
	}
	return *c.MaxMarkersPerFoot
}

// GetGuaranteeMinimumOne returns the guarantee_minimum_one value or the default.
func (c *TuningConfig) GetGuaranteeMinimumOne() bool {
	return boolOr(c.GuaranteeMinimumOne, markers.DefaultOptions().GuaranteeMinimumOne)
}

// GetFlyingMoveAxisZ returns the flying_move_axis_z value or the default.
func (c *TuningConfig) GetFlyingMoveAxisZ() float64 {
	return floatOr(c.FlyingMoveAxisZ, 0.3)
}

// ContactParams converts the detection settings for the contact package.
func (c *TuningConfig) ContactParams() contact.Params {
	def := contact.DefaultParams()
	return contact.Params{
		MoveAxis:                  c.GetMoveAxis(),
		ConfidenceScale:           floatOr(c.PelvisConfidenceScale, def.ConfidenceScale),
		LoopBoundaryConfidence:    floatOr(c.LoopBoundaryConfidence, def.LoopBoundaryConfidence),
		VelocityThreshold:         c.GetVelocityMinimumThreshold(),
		VelocityDefaultConfidence: floatOr(c.VelocityDefaultConfidence, def.VelocityDefaultConfidence),
		SaliencyWindowSize:        floatOr(c.SaliencyWindowSize, def.SaliencyWindowSize),
		SaliencyThreshold:         c.GetSaliencyThreshold(),
		SaliencyMinConfidence:     floatOr(c.SaliencyMinConfidence, def.SaliencyMinConfidence),
		SaliencyDefaultConfidence: floatOr(c.SaliencyDefaultConfidence, def.SaliencyDefaultConfidence),
		MergeThreshold:            floatOr(c.MergeThreshold, def.MergeThreshold),
		AgreementBonus:            floatOr(c.AgreementBonus, def.AgreementBonus),
		MinimumInterval:           floatOr(c.MinimumMarkerInterval, def.MinimumInterval),
		Weights:                   c.GetWeights(),
	}
}

// SelectionOptions converts the marker selection settings.
func (c *TuningConfig) SelectionOptions() markers.Options {
	return markers.Options{
		MinConfidence:       c.GetMinimumConfidence(),
		MaxMarkers:          c.GetMaxMarkersPerFoot(),
		GuaranteeMinimumOne: c.GetGuaranteeMinimumOne(),
		MinimumInterval:     floatOr(c.MinimumMarkerInterval, markers.DefaultOptions().MinimumInterval),
	}
}

// CurveOptions converts the curve output settings.
func (c *TuningConfig) CurveOptions() curves.Options {
	def := curves.DefaultOptions()
	return curves.Options{
		Distance:       boolOr(c.GenerateDistanceCurves, def.Distance),
		Velocity:       boolOr(c.GenerateVelocityCurves, def.Velocity),
		DistanceSuffix: stringOr(c.DistanceCurveSuffix, def.DistanceSuffix),
		VelocitySuffix: stringOr(c.VelocityCurveSuffix, def.VelocitySuffix),
	}
}

// PresetBuilder returns a preset builder with any configured bone patterns
// and marker prefix applied over the built-in defaults.
func (c *TuningConfig) PresetBuilder() preset.Builder {
	b := preset.DefaultBuilder()
	b.FlyingMoveAxisZ = c.GetFlyingMoveAxisZ()
	b.Names.Prefix = stringOr(c.MarkerPrefix, b.Names.Prefix)

	override := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	override(&b.Patterns.Pelvis, c.PelvisBonePatterns)
	override(&b.Patterns.LeftFoot, c.LeftFootBonePatterns)
	override(&b.Patterns.RightFoot, c.RightFootBonePatterns)
	override(&b.Patterns.FrontLeft, c.FrontLeftFootPatterns)
	override(&b.Patterns.FrontRight, c.FrontRightFootPatterns)
	return b
}
