package drive

import "math"

// Differential mixes two-channel drive inputs into left and right percent outputs in -1..1.
// Positive outputs drive the respective side forward.
type Differential struct {
	SquaredInputs bool
	Sensitivity   float64
	MaxOutput     float64
}

// Arcade mixes a forward speed and a turn value (positive turns right), both in -1..1.
func (d Differential) Arcade(move, rotate float64) (left, right float64) {
	move, rotate = limit(move), limit(rotate)
	if d.SquaredInputs {
		move = math.Copysign(move*move, move)
		rotate = math.Copysign(rotate*rotate, rotate)
	}
	if move > 0 {
		if rotate > 0 {
			left = math.Max(move, rotate)
			right = move - rotate
		} else {
			left = move + rotate
			right = math.Max(move, -rotate)
		}
	} else {
		if rotate > 0 {
			left = move + rotate
			right = -math.Max(-move, rotate)
		} else {
			left = -math.Max(-move, -rotate)
			right = move - rotate
		}
	}
	return d.outputs(left, right)
}

// Tank passes the two stick values through, squared if configured.
func (d Differential) Tank(left, right float64) (float64, float64) {
	left, right = limit(left), limit(right)
	if d.SquaredInputs {
		left = math.Copysign(left*left, left)
		right = math.Copysign(right*right, right)
	}
	return d.outputs(left, right)
}

// Curve drives with the given magnitude (speed of the outer side) on a curve.
// The curve is a differential factor in -1..1: negative curves left, positive right,
// zero drives straight. A magnitude of 1 turns the robot in place.
// The inner side is scaled by the ratio (log|c| - s) / (log|c| + s), s being the sensitivity.
func (d Differential) Curve(magnitude, curve float64) (left, right float64) {
	if curve == 0 {
		return d.outputs(magnitude, magnitude)
	}
	value := math.Log(math.Abs(curve))
	ratio := (value - d.Sensitivity) / (value + d.Sensitivity)
	if ratio == 0 {
		ratio = 1e-10
	}
	if curve < 0 {
		left, right = magnitude/ratio, magnitude
	} else {
		left, right = magnitude, magnitude/ratio
	}
	return d.outputs(left, right)
}

func (d Differential) outputs(left, right float64) (float64, float64) {
	return limit(left) * d.MaxOutput, limit(right) * d.MaxOutput
}

func limit(v float64) float64 {
	return math.Max(-1, math.Min(v, 1))
}
