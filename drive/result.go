package drive

import (
	"fmt"

	"github.com/antongulenko/skidsteer/motor"
)

// Mode is the logical operating mode of the whole drivetrain.
type Mode int

const (
	PercentOutput Mode = iota
	PositionHold
	SpeedHold
)

func (m Mode) String() string {
	switch m {
	case PercentOutput:
		return "PercentOutput"
	case PositionHold:
		return "PositionHold"
	case SpeedHold:
		return "SpeedHold"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// controlMode is the motor controller mode implementing the drive mode.
func (m Mode) controlMode() motor.ControlMode {
	switch m {
	case PositionHold:
		return motor.Position
	case SpeedHold:
		return motor.Speed
	default:
		return motor.PercentVbus
	}
}

// Result tells what an actuating operation did during the current cycle.
type Result int

const (
	// Commanded: new targets were sent to both sides.
	Commanded Result = iota

	// Transitioned: the required mode was enabled instead of sending targets. Call again next cycle.
	Transitioned

	// SensorUnavailable: at least one encoder is missing, nothing was sent.
	SensorUnavailable

	// Rejected: the operation does not apply to the current mode, or the input was not a finite number.
	// Nothing was sent.
	Rejected
)

func (r Result) String() string {
	switch r {
	case Commanded:
		return "Commanded"
	case Transitioned:
		return "Transitioned"
	case SensorUnavailable:
		return "SensorUnavailable"
	case Rejected:
		return "Rejected"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Convergence is the answer of the position and orientation queries.
type Convergence int

const (
	// Unknown: sensors are missing or the drivetrain is not holding a position.
	Unknown Convergence = iota
	NotYet
	Reached
)

func (c Convergence) String() string {
	switch c {
	case Unknown:
		return "Unknown"
	case NotYet:
		return "NotYet"
	case Reached:
		return "Reached"
	default:
		return fmt.Sprintf("Convergence(%d)", int(c))
	}
}
