package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footsync/internal/contact"
	"github.com/banshee-data/footsync/internal/curves"
	"github.com/banshee-data/footsync/internal/markers"
	"github.com/banshee-data/footsync/internal/preset"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	if cfg.Method == nil || *cfg.Method != "composite" {
		t.Errorf("Expected Method composite, got %v", cfg.Method)
	}
	if cfg.MaxMarkersPerFoot == nil || *cfg.MaxMarkersPerFoot != 2 {
		t.Errorf("Expected MaxMarkersPerFoot 2, got %v", cfg.MaxMarkersPerFoot)
	}
	if cfg.GuaranteeMinimumOne == nil || *cfg.GuaranteeMinimumOne != true {
		t.Errorf("Expected GuaranteeMinimumOne true, got %v", cfg.GuaranteeMinimumOne)
	}

	if diff := cmp.Diff(contact.DefaultParams(), cfg.ContactParams()); diff != "" {
		t.Errorf("ContactParams() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(markers.DefaultOptions(), cfg.SelectionOptions()); diff != "" {
		t.Errorf("SelectionOptions() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(curves.DefaultOptions(), cfg.CurveOptions()); diff != "" {
		t.Errorf("CurveOptions() mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyConfigMatchesDefaults(t *testing.T) {
	empty := EmptyTuningConfig()
	def := DefaultTuningConfig()

	if diff := cmp.Diff(def.ContactParams(), empty.ContactParams()); diff != "" {
		t.Errorf("ContactParams() mismatch (-default +empty):\n%s", diff)
	}
	if diff := cmp.Diff(def.SelectionOptions(), empty.SelectionOptions()); diff != "" {
		t.Errorf("SelectionOptions() mismatch (-default +empty):\n%s", diff)
	}
	if got := empty.GetMethod(); got != contact.Composite {
		t.Errorf("GetMethod() = %v, want composite", got)
	}
}

func TestDefaultsFileMatchesBuiltins(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if diff := cmp.Diff(DefaultTuningConfig(), cfg); diff != "" {
		t.Errorf("%s drifted from DefaultTuningConfig (-builtin +file):\n%s", DefaultConfigPath, diff)
	}
}

func TestLoadTuningConfig(t *testing.T) {
	path := writeConfig(t, "test_config.json", `{
  "method": "velocity_curve",
  "velocity_minimum_threshold": 12.5,
  "max_markers_per_foot": 0,
  "guarantee_minimum_one": false,
  "move_axis": [0, 2, 0],
  "marker_prefix": "Step",
  "generate_velocity_curves": true
}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if got := cfg.GetMethod(); got != contact.VelocityCurve {
		t.Errorf("GetMethod() = %v, want velocity_curve", got)
	}
	p := cfg.ContactParams()
	if p.VelocityThreshold != 12.5 {
		t.Errorf("VelocityThreshold = %v, want 12.5", p.VelocityThreshold)
	}
	if p.MoveAxis != (r3.Vec{Y: 1}) {
		t.Errorf("MoveAxis = %v, want unit Y", p.MoveAxis)
	}
	// Unset fields keep their defaults.
	if p.SaliencyWindowSize != 0.1 {
		t.Errorf("SaliencyWindowSize = %v, want 0.1", p.SaliencyWindowSize)
	}

	sel := cfg.SelectionOptions()
	if sel.MaxMarkers != 0 || sel.GuaranteeMinimumOne {
		t.Errorf("SelectionOptions() = %+v, want unlimited markers without guarantee", sel)
	}

	if !cfg.CurveOptions().Velocity {
		t.Error("expected velocity curves enabled")
	}
	if got := cfg.PresetBuilder().Names.MarkerName(preset.Left); got != "Step_L" {
		t.Errorf("MarkerName(Left) = %q, want Step_L", got)
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	path := writeConfig(t, "invalid_config.json", `{
  "minimum_confidence": "invalid"
`)

	_, err := LoadTuningConfig(path)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestLoadTuningConfigWrongExtension(t *testing.T) {
	path := writeConfig(t, "config.yaml", `{}`)

	_, err := LoadTuningConfig(path)
	if err == nil || !strings.Contains(err.Error(), ".json") {
		t.Errorf("Expected extension error, got %v", err)
	}
}

func TestLoadTuningConfigTooLarge(t *testing.T) {
	body := `{"marker_prefix": "` + strings.Repeat("x", 1024*1024) + `"}`
	path := writeConfig(t, "big.json", body)

	_, err := LoadTuningConfig(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected size error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     DefaultTuningConfig(),
			wantErr: false,
		},
		{
			name:    "empty config is valid",
			cfg:     &TuningConfig{},
			wantErr: false,
		},
		{
			name:    "unknown method",
			cfg:     &TuningConfig{Method: ptrString("footstep_ai")},
			wantErr: true,
		},
		{
			name:    "weight above one",
			cfg:     &TuningConfig{PelvisWeight: ptrFloat64(1.5)},
			wantErr: true,
		},
		{
			name:    "negative minimum confidence",
			cfg:     &TuningConfig{MinimumConfidence: ptrFloat64(-0.1)},
			wantErr: true,
		},
		{
			name:    "zero confidence scale",
			cfg:     &TuningConfig{PelvisConfidenceScale: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "negative window",
			cfg:     &TuningConfig{SaliencyWindowSize: ptrFloat64(-1)},
			wantErr: true,
		},
		{
			name:    "negative max markers",
			cfg:     &TuningConfig{MaxMarkersPerFoot: ptrInt(-1)},
			wantErr: true,
		},
		{
			name:    "short move axis",
			cfg:     &TuningConfig{MoveAxis: []float64{1, 0}},
			wantErr: true,
		},
		{
			name:    "zero move axis",
			cfg:     &TuningConfig{MoveAxis: []float64{0, 0, 0}},
			wantErr: true,
		},
		{
			name:    "custom preset without feet",
			cfg:     &TuningConfig{CustomPreset: &preset.Preset{PelvisBone: "pelvis"}},
			wantErr: true,
		},
		{
			name: "custom preset with a foot",
			cfg: &TuningConfig{CustomPreset: &preset.Preset{
				PelvisBone: "pelvis",
				Feet:       []preset.FootDefinition{{Bone: "foot_l", MarkerName: "FootDown_L"}},
			}},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPresetBuilderPatterns(t *testing.T) {
	cfg := &TuningConfig{
		PelvisBonePatterns:   []string{"cog"},
		LeftFootBonePatterns: []string{"leg_l_end"},
		FlyingMoveAxisZ:      ptrFloat64(0),
	}
	b := cfg.PresetBuilder()

	bones := []string{"root", "COG", "leg_l_end", "foot_r"}
	got := b.ForSkeleton(bones, preset.HumanoidFlying)

	if got.PelvisBone != "COG" {
		t.Errorf("PelvisBone = %q, want COG", got.PelvisBone)
	}
	if len(got.Feet) != 2 || got.Feet[0].Bone != "leg_l_end" || got.Feet[1].Bone != "foot_r" {
		t.Errorf("Feet = %+v, want leg_l_end and the default right foot", got.Feet)
	}
	if got.MoveAxis != (r3.Vec{X: 1}) {
		t.Errorf("MoveAxis = %v, want forward when flying tilt is zero", got.MoveAxis)
	}
}

func TestMinimumMarkerIntervalFeedsSelection(t *testing.T) {
	cfg := &TuningConfig{MinimumMarkerInterval: ptrFloat64(0.25)}

	if got := cfg.SelectionOptions().MinimumInterval; got != 0.25 {
		t.Errorf("SelectionOptions().MinimumInterval = %v, want 0.25", got)
	}
	if got := cfg.ContactParams().MinimumInterval; got != 0.25 {
		t.Errorf("ContactParams().MinimumInterval = %v, want 0.25", got)
	}
}
