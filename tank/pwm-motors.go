package tank

import (
	"fmt"
	"math"

	"github.com/antongulenko/skidsteer/motor"
	"github.com/antongulenko/skidsteer/pca9685"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// PwmMotors drives two DC motors through a PCA9685 and H-bridges with one speed and one direction input each.
// The motors have no encoders and only support percent output.
type PwmMotors struct {
	I2cAddr   byte
	Frequency float64 // PWM frequency in Hz

	InvertRightDir, InvertLeftDir bool

	// Starting from the first PWM output, the order of outputs must be:
	// left motor, right motor, left direction, right direction
	PwmStart byte // pca9685.LED0

	bus     I2cBus
	outputs pca9685.Outputs
	left    pwmMotor
	right   pwmMotor
}

func (m *PwmMotors) Init(bus I2cBus) error {
	m.bus = bus
	m.outputs = pca9685.Outputs{First: m.PwmStart}
	m.left = pwmMotor{motors: m, id: 0, name: "left"}
	m.right = pwmMotor{motors: m, id: 1, name: "right"}

	prescale, err := pca9685.Prescaler(m.Frequency)
	if err != nil {
		return err
	}
	log.Printf("Initializing PWM driver at %02x (%vHz, prescale %v)...", m.I2cAddr, m.Frequency, prescale)
	// The prescaler can only be written while sleeping
	for _, data := range [][]byte{
		{pca9685.MODE1, pca9685.MODE1_ALLCALL | pca9685.MODE1_SLEEP},
		{pca9685.PRE_SCALE, prescale},
		{pca9685.MODE1, pca9685.MODE1_ALLCALL | pca9685.MODE1_AI},
	} {
		if err := bus.I2cWrite(m.I2cAddr, data...); err != nil {
			return errors.Wrapf(err, "failed to initialize PWM driver at %02x", m.I2cAddr)
		}
	}
	return m.ForceSet(0, 0)
}

func (m *PwmMotors) Left() motor.Controller {
	return &m.left
}

func (m *PwmMotors) Right() motor.Controller {
	return &m.right
}

func (m *PwmMotors) ForceSet(left, right float64) error {
	m.outputs.Invalidate()
	return m.Set(left, right)
}

// Set writes both motor outputs, values in -1..1. Only the changed PWM channels are transferred.
// On a bus that supports queueing, the write is not waited for.
func (m *PwmMotors) Set(left, right float64) error {
	if m.bus == nil {
		return errors.New("PWM motors are not initialized")
	}
	m.left.value, m.right.value = left, right

	// Split the two values into separate speed and direction
	leftSpeed := math.Min(math.Abs(left), 1)
	rightSpeed := math.Min(math.Abs(right), 1)
	leftDir := left > 0 != m.InvertLeftDir
	rightDir := right > 0 != m.InvertRightDir
	dirToFloat := func(dir bool) (res float64) {
		if dir {
			res = 1
		}
		return
	}
	data := m.outputs.Update([]float64{leftSpeed, rightSpeed, dirToFloat(leftDir), dirToFloat(rightDir)})
	if data == nil {
		// The desired state is already deployed
		return nil
	}
	log.Debugf("Setting motors to %.2f%% (%v) and %.2f%% (%v), updating %v PWM value(s)",
		leftSpeed*100, dirToText(leftDir), rightSpeed*100, dirToText(rightDir), (len(data)-1)/pca9685.BYTE_PER_OUTPUT)

	if async, ok := m.bus.(AsyncI2cBus); ok {
		async.QueueWrite(m.I2cAddr, data...)
		return nil
	}
	return m.bus.I2cWrite(m.I2cAddr, data...)
}

func dirToText(dir bool) string {
	if dir {
		return "forward"
	}
	return "backward"
}

// pwmMotor is one side of PwmMotors as a motor controller without encoder.
type pwmMotor struct {
	motors *PwmMotors
	id     int
	name   string
	value  float64
	brake  bool
}

var _ motor.Controller = (*pwmMotor)(nil)

func (p *pwmMotor) ID() int {
	return p.id
}

func (p *pwmMotor) Set(value float64) error {
	if p == &p.motors.left {
		return p.motors.Set(value, p.motors.right.value)
	}
	return p.motors.Set(p.motors.left.value, value)
}

func (p *pwmMotor) ChangeControlMode(mode motor.ControlMode) error {
	if mode != motor.PercentVbus {
		return errors.Wrapf(motor.ErrUnsupportedMode, "%v PWM motor: %v", p.name, mode)
	}
	return nil
}

func (p *pwmMotor) ControlMode() motor.ControlMode {
	return motor.PercentVbus
}

func (p *pwmMotor) Follow(leaderID int) error {
	return errors.Wrapf(motor.ErrUnsupportedMode, "%v PWM motor cannot follow motor %v", p.name, leaderID)
}

// SetPosition does nothing, there is no encoder.
func (p *pwmMotor) SetPosition(float64) error {
	return nil
}

func (p *pwmMotor) Position() float64 {
	return 0
}

func (p *pwmMotor) SensorPresent() bool {
	return false
}

func (p *pwmMotor) SetGains(gains motor.Gains) error {
	log.Debugf("Ignoring gains for %v PWM motor: %v", p.name, gains)
	return nil
}

// EnableBrake is only recorded: the H-bridge coasts whenever the speed output is zero.
func (p *pwmMotor) EnableBrake(brake bool) error {
	p.brake = brake
	return nil
}

func (p *pwmMotor) String() string {
	return fmt.Sprintf("%v PWM motor (%.2f)", p.name, p.value)
}
