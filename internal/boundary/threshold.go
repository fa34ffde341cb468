package boundary

import "math"

const (
	// DefaultThreshold is the calibrated starting sensitivity in RGB units.
	DefaultThreshold = 20.0
	// MinThreshold and MaxThreshold bound user adjustment.
	MinThreshold = 1.0
	MaxThreshold = 255.0

	// thresholdStep is the relative change per scroll notch at the
	// default threshold.
	thresholdStep = 0.05
	// minStepFactor keeps low thresholds from stalling.
	minStepFactor = 0.5
)

// AdjustThreshold applies one scroll notch to current.
//
// A positive delta (scroll down) raises the threshold and a negative delta
// lowers it; zero only clamps. The step grows with the threshold itself so
// adjustment feels proportional at both ends of the range. The result is
// always within [MinThreshold, MaxThreshold].
func AdjustThreshold(current, delta float64) float64 {
	if math.IsNaN(current) {
		current = DefaultThreshold
	}

	factor := 1 + thresholdStep*math.Max(current/DefaultThreshold, minStepFactor)
	switch {
	case delta > 0:
		current *= factor
	case delta < 0:
		current /= factor
	}
	return ClampThreshold(current)
}

// ClampThreshold constrains t to [MinThreshold, MaxThreshold].
func ClampThreshold(t float64) float64 {
	if math.IsNaN(t) {
		return DefaultThreshold
	}
	return math.Min(math.Max(t, MinThreshold), MaxThreshold)
}
