package tank

import (
	"errors"
	"testing"
	"time"

	"github.com/antongulenko/skidsteer/ads1115"
	"github.com/antongulenko/skidsteer/drive"
	"github.com/antongulenko/skidsteer/motor"
	"github.com/antongulenko/skidsteer/pca9685"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initMotors(t *testing.T) (*PwmMotors, *dummyI2cBus) {
	bus := new(dummyI2cBus)
	m := DefaultTank.Motors
	require.NoError(t, m.Init(bus))
	return &m, bus
}

func TestPwmMotorsInit(t *testing.T) {
	a := assert.New(t)
	_, bus := initMotors(t)
	addr := pca9685.ADDRESS
	writes := bus.Writes()
	a.Len(writes, 4)
	a.Equal([]byte{addr, pca9685.MODE1, pca9685.MODE1_ALLCALL | pca9685.MODE1_SLEEP}, writes[0])
	a.Equal([]byte{addr, pca9685.PRE_SCALE, 5}, writes[1]) // 1kHz
	a.Equal([]byte{addr, pca9685.MODE1, pca9685.MODE1_ALLCALL | pca9685.MODE1_AI}, writes[2])

	// All outputs are switched off
	a.Len(writes[3], 2+4*pca9685.BYTE_PER_OUTPUT)
	a.Equal(pca9685.LED0, writes[3][1])
	off := pca9685.FullOff()
	for i := 0; i < 4; i++ {
		a.Equal(off[:], writes[3][2+4*i:6+4*i])
	}

	m := DefaultTank.Motors
	m.Frequency = 5000
	a.Error(m.Init(new(dummyI2cBus)))
}

func TestPwmMotorsSet(t *testing.T) {
	a := assert.New(t)
	m, bus := initMotors(t)
	count := len(bus.Writes())

	a.NoError(m.Set(0.5, -0.25))
	a.Equal([]float64{0.5, 0.25, 1, 0}, m.outputs.State())
	writes := bus.Writes()
	a.Len(writes, count+1)
	last := writes[len(writes)-1]
	a.Len(last, 2+3*pca9685.BYTE_PER_OUTPUT)
	a.Equal(pca9685.LED0, last[1])
	half := pca9685.DutyCycle(0.5)
	a.Equal(half[:], last[2:6])

	// Unchanged values are not written again
	a.NoError(m.Set(0.5, -0.25))
	a.Len(bus.Writes(), count+1)

	a.NoError(m.Set(0.5, -0.5))
	writes = bus.Writes()
	a.Len(writes, count+2)
	last = writes[len(writes)-1]
	a.Equal([]byte{pca9685.ADDRESS, pca9685.LED0 + pca9685.BYTE_PER_OUTPUT}, last[:2])
	a.Equal(half[:], last[2:])

	// Values are limited
	a.NoError(m.Set(-3, 2))
	a.Equal([]float64{1, 1, 0, 1}, m.outputs.State())

	a.NoError(m.ForceSet(-3, 2))
	a.Len(bus.Writes()[len(bus.Writes())-1], 2+4*pca9685.BYTE_PER_OUTPUT)
}

func TestPwmMotorsInverted(t *testing.T) {
	a := assert.New(t)
	m := DefaultTank.Motors
	m.InvertLeftDir = true
	a.NoError(m.Init(new(dummyI2cBus)))
	a.NoError(m.Set(0.5, 0.5))
	a.Equal([]float64{0.5, 0.5, 0, 1}, m.outputs.State())
	a.NoError(m.Set(-0.5, -0.5))
	a.Equal([]float64{0.5, 0.5, 1, 0}, m.outputs.State())

	var uninitialized PwmMotors
	a.Error(uninitialized.Set(0, 0))
}

func TestPwmMotorController(t *testing.T) {
	a := assert.New(t)
	m, _ := initMotors(t)
	left, right := m.Left(), m.Right()
	a.NotEqual(left.ID(), right.ID())

	a.NoError(left.Set(0.3))
	a.NoError(right.Set(-0.3))
	a.Equal([]float64{0.3, 0.3, 1, 0}, m.outputs.State())
	a.NoError(left.Set(0))
	a.Equal([]float64{0, 0.3, 0, 0}, m.outputs.State())

	a.False(left.SensorPresent())
	a.Equal(0.0, left.Position())
	a.NoError(left.SetPosition(0))
	a.NoError(left.SetGains(motor.Gains{P: 1}))
	a.NoError(left.EnableBrake(true))
	a.Equal(motor.PercentVbus, left.ControlMode())
	a.NoError(left.ChangeControlMode(motor.PercentVbus))
	err := left.ChangeControlMode(motor.Position)
	a.Equal(motor.ErrUnsupportedMode, pkgerrors.Cause(err))
	err = right.Follow(left.ID())
	a.Equal(motor.ErrUnsupportedMode, pkgerrors.Cause(err))
}

func TestPwmDrive(t *testing.T) {
	a := assert.New(t)
	m, _ := initMotors(t)
	left, err := motor.NewPair("left", m.Left(), nil)
	a.NoError(err)
	right, err := motor.NewPair("right", m.Right(), nil)
	a.NoError(err)
	d, err := drive.NewController(drive.DefaultConfig, left, right)
	a.NoError(err)

	res, err := d.ArcadeDrive(1, 0)
	a.NoError(err)
	a.Equal(drive.Commanded, res)
	a.Equal([]float64{1, 1, 1, 1}, m.outputs.State())

	// Without encoders, closed-loop control is skipped
	res, err = d.MaintainPosition(1)
	a.NoError(err)
	a.Equal(drive.SensorUnavailable, res)
	a.Equal(drive.Unknown, d.InPosition(1, 0.1))
	a.Equal(drive.PercentOutput, d.Mode())

	a.NoError(d.Stop())
	a.Equal([]float64{0, 0, 0, 0}, m.outputs.State())

	// Explicitly enabling a hold mode reports the unsupported mode
	a.Error(d.EnablePositionMode())
}

type failingBus struct {
	dummyI2cBus
}

func (f *failingBus) I2cWrite(addr byte, data ...byte) error {
	return errors.New("no ACK")
}

func TestSequencedI2cBus(t *testing.T) {
	a := assert.New(t)
	bus := new(dummyI2cBus)
	seq := newSequencedI2cBus(bus, 2)
	for i := byte(0); i < 5; i++ {
		seq.QueueWrite(0x40, i)
	}
	a.NoError(seq.I2cWrite(0x41, 9))
	writes := bus.Writes()
	a.Len(writes, 6)
	for i := byte(0); i < 5; i++ {
		a.Equal([]byte{0x40, i}, writes[i])
	}
	a.Equal([]byte{0x41, 9}, writes[5])

	data := []byte{1, 2}
	a.NoError(seq.I2cRead(0x40, data))
	a.Equal([]byte{0, 0}, data)
	seq.Close()

	failing := newSequencedI2cBus(new(failingBus), 1)
	failing.QueueWrite(0x40, 1) // Only logged
	a.Error(failing.I2cWrite(0x40, 1))
	a.NoError(failing.I2cRead(0x40, data))
	failing.Close()
}

func TestRamp(t *testing.T) {
	a := assert.New(t)
	r := Ramp{AccelSlopeTime: time.Second, DecelSlopeTime: 500 * time.Millisecond}
	step := 100 * time.Millisecond

	a.InDelta(0.1, r.Step(1, step), 1e-9)
	a.InDelta(0.2, r.Step(1, step), 1e-9)
	a.InDelta(0.25, r.Step(0.25, step), 1e-9)

	// Decelerating is faster
	a.InDelta(0.05, r.Step(0, step), 1e-9)
	a.InDelta(0, r.Step(0, step), 1e-9)

	// Backwards
	a.InDelta(-0.1, r.Step(-1, step), 1e-9)
	a.InDelta(-0.2, r.Step(-5, step), 1e-9)
	a.InDelta(0, r.Step(0, time.Second), 1e-9)

	r.MinOutput = 0.2
	a.InDelta(0.2+0.8*0.1, r.Step(1, step), 1e-9)
	r.Reset()
	a.Equal(0.0, r.Output())
	a.Equal(0.0, r.Step(0, step))

	unlimited := Ramp{}
	a.Equal(1.0, unlimited.Step(1, time.Millisecond))
	a.Equal(-1.0, unlimited.Step(-1, time.Millisecond))
}

type adcBus struct {
	dummyI2cBus
	reading []byte
	err     error
}

func (b *adcBus) I2cRead(addr byte, data []byte) error {
	copy(data, b.reading)
	return b.err
}

func TestBattery(t *testing.T) {
	a := assert.New(t)
	b := DefaultTank.Battery
	bus := &adcBus{reading: []byte{0x53, 0x55}}
	_, err := b.Voltage()
	a.Error(err)

	a.NoError(b.Init(bus))
	a.Equal([][]byte{
		{ads1115.ADDR_GND, ads1115.REG_CONFIG, 0x10, 0x43},
		{ads1115.ADDR_GND, ads1115.REG_CONVERSION},
	}, bus.Writes())
	v, err := b.Voltage()
	a.NoError(err)
	a.InDelta(8, v, 0.001)
	a.InDelta(1.4/1.8, b.Percentage(v), 0.001)
	a.Equal(0.0, b.Percentage(5))
	a.Equal(1.0, b.Percentage(9))

	// Only checked once per interval
	bus.reading = []byte{0x40, 0x00} // 6.144V
	b.Check(time.Second)
	a.False(b.Low())
	b.Check(4 * time.Second)
	a.True(b.Low())
	bus.reading = []byte{0x53, 0x55}
	b.Check(5 * time.Second)
	a.False(b.Low())

	// Read errors are only logged
	bus.err = errors.New("no ACK")
	b.Check(5 * time.Second)
	a.False(b.Low())

	disabled := Battery{Disabled: true}
	a.NoError(disabled.Init(bus))
	disabled.Check(time.Hour)
	a.False(disabled.Low())

	dummy := DefaultTank.Battery
	dummy.Dummy = true
	dummyBus := new(dummyI2cBus)
	a.NoError(dummy.Init(dummyBus))
	a.Empty(dummyBus.Writes())
	v, err = dummy.Voltage()
	a.NoError(err)
	a.Equal(dummy.BatteryMax, v)
}

func TestDummyTank(t *testing.T) {
	a := assert.New(t)
	tank := DefaultTank
	tank.Dummy = true
	a.NoError(tank.Setup())
	d := tank.Drive()
	left, right := tank.Simulated()
	a.NotNil(left)
	a.NotNil(right)

	res, err := d.MaintainPosition(0.5)
	a.NoError(err)
	a.Equal(drive.Transitioned, res)
	for i := 0; i < 50 && d.InPosition(0.5, 0.01) != drive.Reached; i++ {
		res, err = d.MaintainPosition(0.5)
		a.NoError(err)
		a.Equal(drive.Commanded, res)
		tank.Tick(50 * time.Millisecond)
	}
	a.Equal(drive.Reached, d.InPosition(0.5, 0.01))
	a.InDelta(0.5, tank.DriveConfig.Geometry.EncoderToLinear(left.Position()), 0.01)

	a.NoError(tank.Cleanup())
	a.Equal(drive.PercentOutput, d.Mode())
}

func TestDummyI2cTank(t *testing.T) {
	a := assert.New(t)
	tank := DefaultTank
	tank.DummyI2c = true
	a.NoError(tank.Setup())
	left, _ := tank.Simulated()
	a.Nil(left)
	tank.Tick(time.Second)

	res, err := tank.Drive().TankDrive(0.5, -0.5)
	a.NoError(err)
	a.Equal(drive.Commanded, res)
	a.Equal([]float64{0.25, 0.25, 1, 0}, tank.Motors.outputs.State())
	a.NoError(tank.Cleanup())
	a.Equal([]float64{0, 0, 0, 0}, tank.Motors.outputs.State())
}

func TestTankDriveConfigError(t *testing.T) {
	tank := DefaultTank
	tank.Dummy = true
	tank.DriveConfigFile = "/nonexistent/drive.yml"
	assert.Error(t, tank.Setup())
}
