// Package command runs drivetrain routines from a periodic loop.
// Every Command is driven one step per tick by a Scheduler: Initialize on the first tick,
// Execute on every following tick, and End once IsFinished returns true or the command is cancelled.
package command

import (
	"fmt"

	"github.com/antongulenko/skidsteer/drive"
	log "github.com/sirupsen/logrus"
)

type Command interface {
	Initialize() error
	Execute() error
	IsFinished() bool
	End() error
}

// Drivetrain is the part of drive.Controller used by the commands.
type Drivetrain interface {
	MaintainPosition(distance float64) (drive.Result, error)
	InPosition(distance, tolerance float64) drive.Convergence
	MaintainOrientation(angle float64) (drive.Result, error)
	AtOrientation(angle, tolerance float64) drive.Convergence
	MaintainSpeed(speed float64) (drive.Result, error)
	AutoDrive(speedCoefficient, radius float64) (drive.Result, error)
	EnablePercentMode() error
	Stop() error
}

var _ Drivetrain = (*drive.Controller)(nil)

// Move drives straight by Distance meters (> 0: forward) and stops when both sides are within Tolerance.
type Move struct {
	Drive     Drivetrain
	Distance  float64
	Tolerance float64

	last drive.Result
}

func NewMove(d Drivetrain, distance, tolerance float64) *Move {
	return &Move{Drive: d, Distance: distance, Tolerance: tolerance}
}

// Initialize already sends the target. The first call only switches the drive mode.
func (m *Move) Initialize() error {
	return m.Execute()
}

func (m *Move) Execute() (err error) {
	m.last, err = m.Drive.MaintainPosition(m.Distance)
	return
}

func (m *Move) IsFinished() bool {
	return aborted(m, m.last) || m.Drive.InPosition(m.Distance, m.Tolerance) == drive.Reached
}

func (m *Move) End() error {
	return m.Drive.Stop()
}

func (m *Move) String() string {
	return fmt.Sprintf("move %.2fm (±%.2fm)", m.Distance, m.Tolerance)
}

// Turn rotates in place by Angle degrees (> 0: right) and stops when both sides are within Tolerance degrees.
type Turn struct {
	Drive     Drivetrain
	Angle     float64
	Tolerance float64

	last drive.Result
}

func NewTurn(d Drivetrain, angle, tolerance float64) *Turn {
	return &Turn{Drive: d, Angle: angle, Tolerance: tolerance}
}

func (t *Turn) Initialize() error {
	return t.Execute()
}

func (t *Turn) Execute() (err error) {
	t.last, err = t.Drive.MaintainOrientation(t.Angle)
	return
}

func (t *Turn) IsFinished() bool {
	return aborted(t, t.last) || t.Drive.AtOrientation(t.Angle, t.Tolerance) == drive.Reached
}

func (t *Turn) End() error {
	return t.Drive.Stop()
}

func (t *Turn) String() string {
	return fmt.Sprintf("turn %.1f° (±%.1f°)", t.Angle, t.Tolerance)
}

// HoldSpeed drives straight with Speed m/s for the given number of commanded cycles.
// With zero Cycles it runs until cancelled.
type HoldSpeed struct {
	Drive  Drivetrain
	Speed  float64
	Cycles int

	last drive.Result
	held int
}

func (h *HoldSpeed) Initialize() error {
	h.held = 0
	return h.Execute()
}

func (h *HoldSpeed) Execute() (err error) {
	h.last, err = h.Drive.MaintainSpeed(h.Speed)
	if h.last == drive.Commanded {
		h.held++
	}
	return
}

func (h *HoldSpeed) IsFinished() bool {
	return aborted(h, h.last) || (h.Cycles > 0 && h.held >= h.Cycles)
}

func (h *HoldSpeed) End() error {
	return h.Drive.Stop()
}

func (h *HoldSpeed) String() string {
	return fmt.Sprintf("hold speed %.2fm/s (%v cycles)", h.Speed, h.Cycles)
}

// Curve drives on a circle with the given Radius in meters (< 0: left) until cancelled.
// Speed is the percent output coefficient of the outer side.
type Curve struct {
	Drive  Drivetrain
	Speed  float64
	Radius float64
}

// Initialize returns to percent output, which also enables the brakes.
func (c *Curve) Initialize() error {
	return c.Drive.EnablePercentMode()
}

func (c *Curve) Execute() error {
	res, err := c.Drive.AutoDrive(c.Speed, c.Radius)
	if res != drive.Commanded {
		log.Warnf("%v: %v", c, res)
	}
	return err
}

func (c *Curve) IsFinished() bool {
	return false
}

func (c *Curve) End() error {
	return c.Drive.Stop()
}

func (c *Curve) String() string {
	return fmt.Sprintf("curve with speed %.2f, radius %.2fm", c.Speed, c.Radius)
}

// aborted reports whether a hold command can never converge, because the encoders are missing
// or the target was rejected.
func aborted(cmd fmt.Stringer, last drive.Result) bool {
	if last == drive.SensorUnavailable || last == drive.Rejected {
		log.Warnf("Aborting %v: %v", cmd, last)
		return true
	}
	return false
}
