package units

import (
	"math"
	"testing"
)

func TestConvertLength(t *testing.T) {
	tests := []struct {
		name     string
		cm       float64
		units    string
		expected float64
	}{
		{"100 cm to m", 100, M, 1},
		{"254 cm to in", 254, IN, 100},
		{"12 cm to cm", 12, CM, 12},
		{"unknown units default to cm", 12, "furlong", 12},
		{"negative distance behind pelvis", -35, M, -0.35},
		{"zero", 0, IN, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertLength(tt.cm, tt.units)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertLength(%f, %s) = %f, want %f", tt.cm, tt.units, result, tt.expected)
			}
		})
	}
}

func TestConvertSpeed(t *testing.T) {
	// A walking foot peaks around 400 cm/s.
	if got := ConvertSpeed(400, M); math.Abs(got-4) > 1e-9 {
		t.Errorf("ConvertSpeed(400, m) = %f, want 4", got)
	}
	if got := ConvertSpeed(2.54, IN); math.Abs(got-1) > 1e-9 {
		t.Errorf("ConvertSpeed(2.54, in) = %f, want 1", got)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		unit     string
		expected bool
	}{
		{CM, true},
		{M, true},
		{IN, true},
		{"mph", false},
		{"", false},
		{"CM", false},
	}

	for _, tt := range tests {
		if got := IsValid(tt.unit); got != tt.expected {
			t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.expected)
		}
	}
}

func TestGetValidUnitsString(t *testing.T) {
	expected := "cm, m, in"
	result := GetValidUnitsString()
	if result != expected {
		t.Errorf("GetValidUnitsString() = %s, want %s", result, expected)
	}
}

func TestLabels(t *testing.T) {
	if got := LengthLabel(M); got != "m" {
		t.Errorf("LengthLabel(m) = %q", got)
	}
	if got := SpeedLabel(IN); got != "in/s" {
		t.Errorf("SpeedLabel(in) = %q", got)
	}
	if got := SpeedLabel("bogus"); got != "cm/s" {
		t.Errorf("SpeedLabel(bogus) = %q, want cm/s", got)
	}
}
