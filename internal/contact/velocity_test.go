package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestLocalMinima(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		speeds    []float64
		threshold float64
		want      []int
	}{
		{"single dip", []float64{10, 1, 10}, 5, []int{1}},
		{"dip above threshold", []float64{10, 6, 10}, 5, nil},
		{"plateau keeps both edges", []float64{10, 1, 1, 10}, 5, []int{1, 2}},
		{"leading edge", []float64{1, 5, 10}, 3, []int{0}},
		{"trailing edge", []float64{10, 5, 1}, 3, []int{2}},
		{"flat never qualifies", []float64{0, 0, 0, 0}, 5, nil},
		{"too short", []float64{1, 0}, 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalMinima(tt.speeds, tt.threshold))
		})
	}
}

func TestSpeeds(t *testing.T) {
	t.Parallel()

	tr := world([]float64{0, 1, 2},
		r3.Vec{X: 0}, r3.Vec{X: 1}, r3.Vec{X: 3})
	assert.Equal(t, []float64{1, 1.5, 2}, Speeds(tr.Absolute))

	// Repeated timestamps give zero speed rather than dividing by zero.
	still := world([]float64{0, 0, 0},
		r3.Vec{X: 0}, r3.Vec{X: 1}, r3.Vec{X: 2})
	assert.Equal(t, []float64{0, 0, 0}, Speeds(still.Absolute))
}

func TestVelocityCurve_InsufficientInput(t *testing.T) {
	t.Parallel()

	d := &VelocityCurveDetector{}
	two := world([]float64{0, 1}, r3.Vec{}, r3.Vec{X: 1})
	assert.Empty(t, d.Detect(two, DefaultParams()))

	noFoot := world([]float64{0, 1, 2}, r3.Vec{}, r3.Vec{X: 10}, r3.Vec{X: 10.5})
	noFoot.FootBone = ""
	assert.Empty(t, d.Detect(noFoot, DefaultParams()))
}

func TestVelocityCurve_PlantedFrame(t *testing.T) {
	t.Parallel()

	// Speeds: forward 10, central 0.25, backward 9.5.
	tr := world([]float64{0, 1, 2}, r3.Vec{}, r3.Vec{X: 10}, r3.Vec{X: 0.5})

	got := (&VelocityCurveDetector{}).Detect(tr, DefaultParams())
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Time)
	assert.True(t, got[0].IsContact)
	assert.Equal(t, VelocityCurve, got[0].Source)
	assert.InDelta(t, 1-0.25/10, got[0].Confidence, 1e-12)
}

func TestVelocityCurve_ThresholdOverride(t *testing.T) {
	t.Parallel()

	tr := world([]float64{0, 1, 2}, r3.Vec{}, r3.Vec{X: 10}, r3.Vec{X: 0.5})

	d := &VelocityCurveDetector{}
	d.SetVelocityThreshold(0.1)
	assert.Empty(t, d.Detect(tr, DefaultParams()))

	// Saliency overrides do not affect this detector.
	d = &VelocityCurveDetector{}
	d.SetSaliencyThreshold(0)
	assert.Len(t, d.Detect(tr, DefaultParams()), 1)
}

func TestVelocityCurve_DefaultConfidenceForNearZeroMotion(t *testing.T) {
	t.Parallel()

	// Max speed stays below epsilon, so the fixed default applies.
	tr := world([]float64{0, 1, 2}, r3.Vec{}, r3.Vec{X: 5e-5}, r3.Vec{X: 2e-5})

	p := DefaultParams()
	got := (&VelocityCurveDetector{}).Detect(tr, p)
	require.Len(t, got, 1)
	assert.Equal(t, p.VelocityDefaultConfidence, got[0].Confidence)
}

func TestVelocityCurve_ConfidenceFloor(t *testing.T) {
	t.Parallel()

	// The dip equals max speed's reduction cap: confidence never drops below 0.1.
	speeds := []float64{10, 9.99, 10}
	minima := LocalMinima(speeds, 20)
	require.Equal(t, []int{1}, minima)
	assert.InDelta(t, 0.1, 1.0-clamp(speeds[1]/10, 0, 0.9), 1e-12)
}
