package motor

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Pair couples a primary motor controller with an optional follower that mirrors
// the output of the primary. Only the primary is ever commanded after construction,
// and only the sensor of the primary is used.
type Pair struct {
	Name string

	primary  Controller
	follower Controller
}

func NewPair(name string, primary, follower Controller) (*Pair, error) {
	if primary == nil {
		return nil, fmt.Errorf("Motor pair %v: missing primary motor controller", name)
	}
	p := &Pair{
		Name:     name,
		primary:  primary,
		follower: follower,
	}
	if follower != nil {
		log.Printf("Motor pair %v: controller %v follows controller %v", name, follower.ID(), primary.ID())
		if err := follower.Follow(primary.ID()); err != nil {
			return nil, fmt.Errorf("Motor pair %v: failed to configure follower %v: %v", name, follower.ID(), err)
		}
	}
	return p, nil
}

func (p *Pair) Command(value float64) error {
	return p.primary.Set(value)
}

// SetBrake selects inductive braking (true) or coasting (false) when the command is zero.
func (p *Pair) SetBrake(enabled bool) error {
	return p.primary.EnableBrake(enabled)
}

func (p *Pair) ChangeControlMode(mode ControlMode) error {
	return p.primary.ChangeControlMode(mode)
}

func (p *Pair) ZeroPosition() error {
	return p.primary.SetPosition(0)
}

func (p *Pair) SetGains(gains Gains) error {
	return p.primary.SetGains(gains)
}

func (p *Pair) Position() float64 {
	return p.primary.Position()
}

func (p *Pair) ControlMode() ControlMode {
	return p.primary.ControlMode()
}

func (p *Pair) SensorPresent() bool {
	return p.primary.SensorPresent()
}

func (p *Pair) String() string {
	if p.follower == nil {
		return fmt.Sprintf("%v (%v)", p.Name, p.primary.ID())
	}
	return fmt.Sprintf("%v (%v, follower %v)", p.Name, p.primary.ID(), p.follower.ID())
}
