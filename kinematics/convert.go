package kinematics

import "math"

// LinearToEncoder converts a distance traveled by a wheel into an encoder target.
// arc length = angle * radius, so angle = distance / radius.
func (g Geometry) LinearToEncoder(distance float64) float64 {
	angleRad := distance / g.WheelRadius
	return g.PulsesPerWheelRev() * angleRad / (2 * math.Pi)
}

// EncoderToleranceFromLinear converts a distance tolerance. A tolerance is a distance itself,
// so this is the same conversion as for a target.
func (g Geometry) EncoderToleranceFromLinear(tolerance float64) float64 {
	return g.LinearToEncoder(tolerance)
}

// AngleToEncoder converts a rotation of the robot body around its center (degrees)
// into the encoder target of one side. The other side must be commanded to the negated value.
func (g Geometry) AngleToEncoder(angleDeg float64) float64 {
	return g.PulsesPerWheelRev() * g.DiameterToTrack() * angleDeg / 360
}

// SpeedToEncoderRate converts a linear wheel speed (m/s) into encoder pulses per second.
func (g Geometry) SpeedToEncoderRate(speed float64) float64 {
	angleRadPerSec := speed / g.WheelRadius
	return g.PulsesPerWheelRev() * angleRadPerSec / (2 * math.Pi)
}

func (g Geometry) EncoderToLinear(pulses float64) float64 {
	return pulses / g.PulsesPerWheelRev() * 2 * math.Pi * g.WheelRadius
}

func (g Geometry) EncoderToAngle(pulses float64) float64 {
	return pulses * 360 / (g.PulsesPerWheelRev() * g.DiameterToTrack())
}

func (g Geometry) EncoderRateToSpeed(pulsesPerSec float64) float64 {
	return g.EncoderToLinear(pulsesPerSec)
}
