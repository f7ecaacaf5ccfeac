// Package motor abstracts the motor controllers of one drivetrain side.
package motor

import (
	"errors"
	"fmt"
)

type ControlMode int

const (
	PercentVbus ControlMode = iota
	Position
	Speed
	Follower
)

func (m ControlMode) String() string {
	switch m {
	case PercentVbus:
		return "PercentVbus"
	case Position:
		return "Position"
	case Speed:
		return "Speed"
	case Follower:
		return "Follower"
	default:
		return fmt.Sprintf("ControlMode(%d)", int(m))
	}
}

var ErrUnsupportedMode = errors.New("control mode not supported by motor controller")

// Gains configure the closed-loop control of a motor controller.
type Gains struct {
	P float64 `yaml:"p"`
	I float64 `yaml:"i"`
	D float64 `yaml:"d"`
	F float64 `yaml:"f"`
}

func (g Gains) String() string {
	return fmt.Sprintf("P=%v I=%v D=%v F=%v", g.P, g.I, g.D, g.F)
}

// Controller is a single motor controller. The meaning of Set depends on the control mode:
// -1..1 in PercentVbus, encoder pulses in Position, pulses per second in Speed.
// Writes are not acknowledged by the device; reads return the most recent known state.
type Controller interface {
	ID() int
	Set(value float64) error
	ChangeControlMode(mode ControlMode) error
	ControlMode() ControlMode

	// Follow makes this controller mirror the output of the controller with the given ID.
	Follow(leaderID int) error

	// SetPosition redefines the current encoder position.
	SetPosition(position float64) error
	Position() float64
	SensorPresent() bool

	SetGains(gains Gains) error
	EnableBrake(brake bool) error
}
