package kinematics

import "math"

// Sign returns -1 for negative values and +1 otherwise. Zero counts as non-negative,
// so a zero turn radius is treated as a pivot to the right.
func Sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// CurveFactor maps a signed turn radius (negative: left, positive: right) to the
// differential factor between the outer and inner side: sign(r) * exp(-|r| / track).
// The magnitude is 1 for a pivot turn and approaches 0 (equal speeds) for large radii.
func CurveFactor(radius, track float64) float64 {
	return Sign(radius) * math.Exp(-math.Abs(radius)/track)
}

// CurveFactor uses the wheel track of the geometry.
func (g Geometry) CurveFactor(radius float64) float64 {
	return CurveFactor(radius, g.WheelTrack)
}
