// Package units converts clip-space lengths and speeds for display.
// Clip positions are stored in centimetres, so every conversion starts from cm.
package units

// Unit constants
const (
	CM = "cm"
	M  = "m"
	IN = "in"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{CM, M, IN}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "cm, m, in"
}

// ConvertLength converts a length in centimetres to the target units.
func ConvertLength(cm float64, targetUnits string) float64 {
	switch targetUnits {
	case M:
		return cm / 100
	case IN:
		return cm / 2.54
	default:
		return cm // default to cm if unknown unit
	}
}

// ConvertSpeed converts a speed in cm/s to target units per second.
func ConvertSpeed(cmPerSec float64, targetUnits string) float64 {
	return ConvertLength(cmPerSec, targetUnits)
}

// LengthLabel returns the axis label for a length in the given units.
func LengthLabel(unit string) string {
	if !IsValid(unit) {
		unit = CM
	}
	return unit
}

// SpeedLabel returns the axis label for a speed in the given units.
func SpeedLabel(unit string) string {
	return LengthLabel(unit) + "/s"
}
