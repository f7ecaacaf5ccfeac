// Package kinematics converts between physical drive quantities (meters,
// degrees, meters per second) and encoder units of a skid-steer drivetrain.
package kinematics

import (
	"fmt"
	"math"
)

// Sign conventions at the drive interface. Callers multiply distances and
// angles with these to make system-level inversions explicit.
const (
	Forward  = 1.0
	Backward = -1.0
	Left     = -1.0
	Right    = 1.0
)

var DefaultGeometry = Geometry{
	WheelRadius:       0.1143,
	WheelTrack:        0.6096, // 24 inches
	PulsesPerMotorRev: 1024,
	GearRatio:         3.0,
}

// Geometry holds the immutable drivetrain constants. All lengths in meters.
type Geometry struct {
	WheelRadius       float64 `yaml:"wheel_radius_m"`
	WheelTrack        float64 `yaml:"wheel_track_m"`
	PulsesPerMotorRev float64 `yaml:"pulses_per_motor_rev"`
	GearRatio         float64 `yaml:"gear_ratio"`
}

func (g Geometry) Validate() error {
	if !positive(g.WheelRadius) {
		return fmt.Errorf("Invalid wheel radius %v (must be > 0)", g.WheelRadius)
	}
	if !positive(g.WheelTrack) {
		return fmt.Errorf("Invalid wheel track %v (must be > 0)", g.WheelTrack)
	}
	if !positive(g.PulsesPerWheelRev()) {
		return fmt.Errorf("Invalid encoder resolution: %v pulses per motor revolution with gear ratio %v (must be > 0)",
			g.PulsesPerMotorRev, g.GearRatio)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// PulsesPerWheelRev is the number of encoder pulses for one full wheel revolution.
func (g Geometry) PulsesPerWheelRev() float64 {
	return g.PulsesPerMotorRev * g.GearRatio
}

func (g Geometry) WheelDiameter() float64 {
	return 2 * g.WheelRadius
}

// DiameterToTrack is the ratio between wheel diameter and wheel track used for in-place rotation.
func (g Geometry) DiameterToTrack() float64 {
	return g.WheelDiameter() / g.WheelTrack
}

func (g Geometry) String() string {
	return fmt.Sprintf("wheel radius %vm, track %vm, %v pulses/rev (%v x %v)",
		g.WheelRadius, g.WheelTrack, g.PulsesPerWheelRev(), g.PulsesPerMotorRev, g.GearRatio)
}
