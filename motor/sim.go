package motor

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultSimMaxRate is the encoder rate (pulses per second) of a simulated motor at full output.
const DefaultSimMaxRate = 6000

// Sim is an in-memory motor controller with an optional encoder. It records all commands
// and moves its encoder when stepped, approximating a closed-loop controller with a bounded rate.
type Sim struct {
	Id       int
	MaxRate  float64 // Pulses per second at full output, DefaultSimMaxRate if zero
	NoSensor bool

	// Recorded state, readable by tests
	Value    float64
	Mode     ControlMode
	Leader   int
	Gains    Gains
	Brake    bool
	Commands int // Number of Set calls

	position float64
}

var _ Controller = (*Sim)(nil)

func NewSim(id int) *Sim {
	return &Sim{Id: id, Leader: -1}
}

func (s *Sim) ID() int {
	return s.Id
}

func (s *Sim) Set(value float64) error {
	s.Value = value
	s.Commands++
	return nil
}

func (s *Sim) ChangeControlMode(mode ControlMode) error {
	if mode == Follower {
		return ErrUnsupportedMode // Use Follow()
	}
	s.Mode = mode
	s.Value = 0
	return nil
}

func (s *Sim) ControlMode() ControlMode {
	return s.Mode
}

func (s *Sim) Follow(leaderID int) error {
	s.Mode = Follower
	s.Leader = leaderID
	return nil
}

func (s *Sim) SetPosition(position float64) error {
	s.position = position
	return nil
}

func (s *Sim) Position() float64 {
	if s.NoSensor {
		return 0
	}
	return s.position
}

// SetPositionReading overrides the encoder reading, as if the wheel was moved externally.
func (s *Sim) SetPositionReading(position float64) {
	s.position = position
}

func (s *Sim) SensorPresent() bool {
	return !s.NoSensor
}

func (s *Sim) SetGains(gains Gains) error {
	s.Gains = gains
	return nil
}

func (s *Sim) EnableBrake(brake bool) error {
	s.Brake = brake
	return nil
}

// Step advances the simulated motor by the given time.
func (s *Sim) Step(dt time.Duration) {
	maxRate := s.MaxRate
	if maxRate <= 0 {
		maxRate = DefaultSimMaxRate
	}
	maxStep := maxRate * dt.Seconds()
	switch s.Mode {
	case PercentVbus:
		s.position += math.Max(-1, math.Min(s.Value, 1)) * maxStep
	case Position:
		diff := s.Value - s.position
		if math.Abs(diff) <= maxStep {
			s.position = s.Value
		} else {
			s.position += math.Copysign(maxStep, diff)
		}
	case Speed:
		rate := math.Max(-maxRate, math.Min(s.Value, maxRate))
		s.position += rate * dt.Seconds()
	}
	log.Debugf("Simulated motor %v (%v): value %.2f, position %.2f", s.Id, s.Mode, s.Value, s.position)
}
