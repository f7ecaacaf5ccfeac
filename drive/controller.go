// Package drive controls a skid-steer drivetrain made of two motor pairs.
//
// All operations are meant to be called from a single periodic control loop, one
// operation per cycle. Hold operations (MaintainPosition, MaintainOrientation, MaintainSpeed)
// must be repeated every cycle for as long as the target should be held.
// No operation blocks or fails the caller: a cycle that cannot actuate is reported
// through the returned Result, while the error only carries transport failures.
package drive

import (
	"fmt"
	"math"

	"github.com/antongulenko/skidsteer/kinematics"
	"github.com/antongulenko/skidsteer/motor"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

type Controller struct {
	config       Config
	geometry     kinematics.Geometry
	differential Differential

	left  *motor.Pair
	right *motor.Pair

	// Single source of the drivetrain mode. The motor controllers catch up with it eventually.
	mode Mode

	// Only used to avoid repeated log messages, never for decisions
	sensorsMissing bool
}

func NewController(config Config, left, right *motor.Pair) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if left == nil || right == nil {
		return nil, fmt.Errorf("Drive controller requires both a left and a right motor pair")
	}
	log.Printf("Drive controller with left %v, right %v: %v", left, right, config.Geometry)
	return &Controller{
		config:       config,
		geometry:     config.Geometry,
		differential: config.Differential(),
		left:         left,
		right:        right,
		mode:         PercentOutput,
	}, nil
}

func (c *Controller) Mode() Mode {
	return c.mode
}

func (c *Controller) Geometry() kinematics.Geometry {
	return c.geometry
}

// ArcadeDrive drives with a speed and a turn coefficient in -1..1 (positive turn: right).
func (c *Controller) ArcadeDrive(speed, turn float64) (Result, error) {
	if !finite(speed, turn) {
		return c.reject("arcade drive", speed, turn), nil
	}
	l, r := c.differential.Arcade(speed, turn)
	return c.percentOutput("arcade drive", l, r)
}

// TankDrive drives each side with its own coefficient in -1..1.
func (c *Controller) TankDrive(left, right float64) (Result, error) {
	if !finite(left, right) {
		return c.reject("tank drive", left, right), nil
	}
	l, r := c.differential.Tank(left, right)
	return c.percentOutput("tank drive", l, r)
}

// AutoDrive drives on a circle with the given radius in meters (< 0: left, > 0: right).
// The speed coefficient (-1..1) applies to the outer side. A zero radius turns right in place.
func (c *Controller) AutoDrive(speedCoefficient, radius float64) (Result, error) {
	if !finite(speedCoefficient, radius) {
		return c.reject("auto drive", speedCoefficient, radius), nil
	}
	curve := c.geometry.CurveFactor(radius)
	l, r := c.differential.Curve(speedCoefficient, curve)
	return c.percentOutput("auto drive", l, r)
}

func (c *Controller) percentOutput(op string, left, right float64) (Result, error) {
	if c.mode != PercentOutput {
		return c.reject(op, left, right), nil
	}
	// A motor controller might have been reset in between: restore the mode in the same cycle
	err := c.changeControlMode(motor.PercentVbus)
	return Commanded, multierr.Append(err, c.command(left, right))
}

// EnablePercentMode stops the drivetrain and returns to percent output.
func (c *Controller) EnablePercentMode() error {
	return c.Stop()
}

// EnablePositionMode stops the drivetrain, redefines the current encoder positions as zero
// and configures position control on both sides. Every call re-zeroes the encoders, so it
// must only be called at a mode boundary, not while holding a target.
func (c *Controller) EnablePositionMode() error {
	return c.enableHoldMode(PositionHold, c.config.PositionGains)
}

// EnableOrientationMode is EnablePositionMode: orientation is held through the encoder positions.
func (c *Controller) EnableOrientationMode() error {
	return c.EnablePositionMode()
}

// MaintainPosition holds a straight-line distance in meters (> 0: forward) relative to
// the position at the last mode change. Must be called every cycle.
func (c *Controller) MaintainPosition(distance float64) (Result, error) {
	if res, ready, err := c.holdReady(PositionHold, "maintain position"); !ready {
		return res, err
	}
	if !finite(distance) {
		return c.reject("maintain position", distance), nil
	}
	target := c.geometry.LinearToEncoder(distance)
	return Commanded, c.command(target, target)
}

// InPosition reports whether both sides are within the tolerance (meters) of the given distance.
func (c *Controller) InPosition(distance, tolerance float64) Convergence {
	if !c.queryReady(PositionHold) || !finite(distance, tolerance) {
		return Unknown
	}
	target := c.geometry.LinearToEncoder(distance)
	encoderTolerance := c.geometry.EncoderToleranceFromLinear(math.Abs(tolerance))
	return c.converged(target, target, encoderTolerance)
}

// MaintainOrientation rotates the robot in place by the given angle in degrees
// (> 0: right/clockwise) relative to the orientation at the last mode change.
// The left side is commanded forward and the right side backward for positive angles.
func (c *Controller) MaintainOrientation(angle float64) (Result, error) {
	if res, ready, err := c.holdReady(PositionHold, "maintain orientation"); !ready {
		return res, err
	}
	if !finite(angle) {
		return c.reject("maintain orientation", angle), nil
	}
	target := c.geometry.AngleToEncoder(angle)
	return Commanded, c.command(target, -target)
}

// AtOrientation reports whether both sides are within the angle tolerance (degrees) of their targets.
func (c *Controller) AtOrientation(angle, tolerance float64) Convergence {
	if !c.queryReady(PositionHold) || !finite(angle, tolerance) {
		return Unknown
	}
	target := c.geometry.AngleToEncoder(angle)
	encoderTolerance := c.geometry.AngleToEncoder(math.Abs(tolerance))
	return c.converged(target, -target, encoderTolerance)
}

func (c *Controller) EnableSpeedMode() error {
	return c.enableHoldMode(SpeedHold, c.config.SpeedGains)
}

// MaintainSpeed holds a straight-line speed in m/s (> 0: forward). Must be called every cycle.
// There is no convergence query for speed.
func (c *Controller) MaintainSpeed(speed float64) (Result, error) {
	if res, ready, err := c.holdReady(SpeedHold, "maintain speed"); !ready {
		return res, err
	}
	if !finite(speed) {
		return c.reject("maintain speed", speed), nil
	}
	target := c.geometry.SpeedToEncoderRate(speed)
	return Commanded, c.command(target, target)
}

// Stop enables braking, switches both sides to percent output and commands zero.
// Valid in every mode, afterwards the mode is PercentOutput.
func (c *Controller) Stop() error {
	err := c.ConfigureBrakeMode(true)
	err = multierr.Append(err, c.changeControlMode(motor.PercentVbus))
	err = multierr.Append(err, c.command(0, 0))
	c.setMode(PercentOutput)
	return err
}

// ConfigureBrakeMode selects braking (true) or coasting (false) on both sides.
// The two sides are not updated atomically.
func (c *Controller) ConfigureBrakeMode(brake bool) error {
	log.Debugf("Setting drive brake mode: %v", brake)
	return multierr.Combine(c.left.SetBrake(brake), c.right.SetBrake(brake))
}

func (c *Controller) enableHoldMode(mode Mode, gains motor.Gains) error {
	if c.mode == mode {
		log.Debugf("Re-enabling drive mode %v: encoder positions are reset", mode)
	}
	err := c.Stop()
	for _, side := range []*motor.Pair{c.left, c.right} {
		err = multierr.Append(err, side.ChangeControlMode(mode.controlMode()))
		err = multierr.Append(err, side.ZeroPosition())
		err = multierr.Append(err, side.SetGains(gains))
	}
	c.setMode(mode)
	return err
}

// holdReady checks the preconditions of a hold operation in order: sensors, then mode.
// If the mode is not established, it is enabled during this call.
func (c *Controller) holdReady(mode Mode, op string) (Result, bool, error) {
	if !c.sensorsPresent() {
		return SensorUnavailable, false, nil
	}
	if !c.inMode(mode) {
		log.Debugf("Drive %v: enabling %v (current mode %v, control modes %v/%v)",
			op, mode, c.mode, c.left.ControlMode(), c.right.ControlMode())
		return Transitioned, false, c.enableHoldMode(mode, c.gains(mode))
	}
	return Commanded, true, nil
}

func (c *Controller) queryReady(mode Mode) bool {
	return c.sensorsPresent() && c.inMode(mode)
}

func (c *Controller) gains(mode Mode) motor.Gains {
	if mode == SpeedHold {
		return c.config.SpeedGains
	}
	return c.config.PositionGains
}

// inMode checks both the logical mode and the mode reported by both motor controllers.
func (c *Controller) inMode(mode Mode) bool {
	control := mode.controlMode()
	return c.mode == mode && c.left.ControlMode() == control && c.right.ControlMode() == control
}

func (c *Controller) converged(leftTarget, rightTarget, tolerance float64) Convergence {
	leftPos, rightPos := c.left.Position(), c.right.Position()
	if math.Abs(leftPos-leftTarget) <= tolerance && math.Abs(rightPos-rightTarget) <= tolerance {
		return Reached
	}
	log.Debugf("Drive not converged: left %.1f (target %.1f), right %.1f (target %.1f), tolerance %.1f",
		leftPos, leftTarget, rightPos, rightTarget, tolerance)
	return NotYet
}

func (c *Controller) sensorsPresent() bool {
	leftOk, rightOk := c.left.SensorPresent(), c.right.SensorPresent()
	present := leftOk && rightOk
	if !present && !c.sensorsMissing {
		log.Warnf("Drive encoder missing (left present: %v, right present: %v), skipping closed-loop control",
			leftOk, rightOk)
	} else if present && c.sensorsMissing {
		log.Println("Drive encoders are present again")
	}
	c.sensorsMissing = !present
	return present
}

func (c *Controller) changeControlMode(mode motor.ControlMode) error {
	var err error
	for _, side := range []*motor.Pair{c.left, c.right} {
		if side.ControlMode() != mode {
			err = multierr.Append(err, side.ChangeControlMode(mode))
		}
	}
	return err
}

func (c *Controller) setMode(mode Mode) {
	if mode != c.mode {
		log.Printf("Drive mode %v -> %v", c.mode, mode)
		c.mode = mode
	}
}

func (c *Controller) command(left, right float64) error {
	log.Debugf("Drive %v: left %.3f, right %.3f", c.mode, left, right)
	return multierr.Combine(c.left.Command(left), c.right.Command(right))
}

func (c *Controller) reject(op string, values ...float64) Result {
	log.Warnf("Drive %v rejected in mode %v (values %v)", op, c.mode, values)
	return Rejected
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
