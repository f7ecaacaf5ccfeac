package command

import (
	"fmt"
	"strings"

	"github.com/antongulenko/skidsteer/kinematics"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Sequence runs the contained commands one after another, one step per tick.
type Sequence struct {
	Name     string
	Commands []Command

	current int
	started bool
}

func NewSequence(name string, commands ...Command) *Sequence {
	return &Sequence{Name: name, Commands: commands}
}

func (s *Sequence) Initialize() error {
	s.current = 0
	s.started = false
	return s.step()
}

func (s *Sequence) Execute() error {
	return s.step()
}

func (s *Sequence) IsFinished() bool {
	return s.current >= len(s.Commands)
}

// End ends the running command when the sequence is cancelled.
func (s *Sequence) End() error {
	if s.current < len(s.Commands) && s.started {
		log.Printf("%v: cancelling step %v of %v: %v", s.Name, s.current+1, len(s.Commands), s.Commands[s.current])
		s.started = false
		return s.Commands[s.current].End()
	}
	return nil
}

func (s *Sequence) step() error {
	if s.IsFinished() {
		return nil
	}
	cmd := s.Commands[s.current]
	var err error
	if !s.started {
		log.Printf("%v: step %v of %v: %v", s.Name, s.current+1, len(s.Commands), cmd)
		s.started = true
		err = cmd.Initialize()
	} else {
		err = cmd.Execute()
	}
	if cmd.IsFinished() {
		err = multierr.Append(err, cmd.End())
		s.current++
		s.started = false
	}
	return err
}

func (s *Sequence) String() string {
	steps := make([]string, len(s.Commands))
	for i, cmd := range s.Commands {
		steps[i] = fmt.Sprint(cmd)
	}
	return fmt.Sprintf("%v [%v]", s.Name, strings.Join(steps, ", "))
}

// Square drives a square: four times a forward move by side meters, followed by a right turn of 90 degrees.
func Square(d Drivetrain, side, tolerance, angleTolerance float64) *Sequence {
	seq := NewSequence("square")
	for i := 0; i < 4; i++ {
		seq.Commands = append(seq.Commands,
			NewMove(d, kinematics.Forward*side, tolerance),
			NewTurn(d, kinematics.Right*90, angleTolerance))
	}
	return seq
}
