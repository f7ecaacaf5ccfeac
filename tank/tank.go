package tank

import (
	"flag"
	"time"

	"github.com/antongulenko/skidsteer/ads1115"
	"github.com/antongulenko/skidsteer/drive"
	"github.com/antongulenko/skidsteer/motor"
	"github.com/antongulenko/skidsteer/pca9685"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var DefaultTank = Tank{
	I2cDevice:       "/dev/i2c-1",
	I2cRequestQueue: 20,
	Motors: PwmMotors{
		I2cAddr:        pca9685.ADDRESS,
		Frequency:      1000,
		PwmStart:       pca9685.LED0,
		InvertLeftDir:  false,
		InvertRightDir: false,
	},
	Battery: Battery{
		I2cAddr:       ads1115.ADDR_GND,
		Divider:       2,
		BatteryMin:    6.6,
		BatteryMax:    8.4,
		CheckInterval: 5 * time.Second,
	},
	DriveConfig: drive.DefaultConfig,
}

// Tank assembles the drivetrain: either PWM motors on an I2C bus, or simulated
// motor controllers with encoders in dummy mode.
type Tank struct {
	I2cDevice       string
	I2cRequestQueue int
	NoI2cSequencer  bool
	DummyI2c        bool
	Dummy           bool
	DriveConfigFile string

	Motors      PwmMotors
	Battery     Battery
	DriveConfig drive.Config

	devfs     *devfsI2cBus
	sequencer *sequencedI2cBus
	sims      []*motor.Sim
	drive     *drive.Controller
}

func (t *Tank) RegisterFlags() {
	flag.StringVar(&t.I2cDevice, "i2c", t.I2cDevice, "I2C device file of the bus with the PWM driver")
	flag.IntVar(&t.I2cRequestQueue, "i2c-queue", t.I2cRequestQueue, "Number of I2C requests that can be queued without blocking")
	flag.BoolVar(&t.NoI2cSequencer, "no-i2c-sequencer", t.NoI2cSequencer, "Disable the extra goroutine for sequencing I2C commands")
	flag.BoolVar(&t.DummyI2c, "dummy-i2c", t.DummyI2c, "Do not access the I2C bus, only log the PWM values")
	flag.BoolVar(&t.Dummy, "dummy", t.Dummy, "Simulate the motor controllers and encoders instead of using the I2C peripherals")
	flag.Float64Var(&t.Motors.Frequency, "pwm-freq", t.Motors.Frequency, "PWM frequency of the motor outputs in Hz")
	flag.BoolVar(&t.Motors.InvertLeftDir, "invert-left", t.Motors.InvertLeftDir, "Invert the direction of the left motor")
	flag.BoolVar(&t.Motors.InvertRightDir, "invert-right", t.Motors.InvertRightDir, "Invert the direction of the right motor")
	t.Battery.RegisterFlags()
	flag.StringVar(&t.DriveConfigFile, "drive-config", t.DriveConfigFile, "YAML file with the drive geometry and gains (optional)")
}

func (t *Tank) Setup() error {
	if t.DriveConfigFile != "" {
		config, err := drive.LoadConfig(t.DriveConfigFile)
		if err != nil {
			return err
		}
		t.DriveConfig = config
	}

	var left, right *motor.Pair
	var err error
	if t.Dummy {
		log.Println("Dummy tank: simulating motor controllers instead of using I2C peripherals")
		left, right, err = t.setupSimulation()
	} else {
		left, right, err = t.setupMotors()
	}
	if err != nil {
		return err
	}
	t.drive, err = drive.NewController(t.DriveConfig, left, right)
	if err != nil {
		return err
	}
	log.Println("Successfully initialized drivetrain")
	return nil
}

func (t *Tank) setupMotors() (*motor.Pair, *motor.Pair, error) {
	if err := t.Motors.Init(t.Bus()); err != nil {
		return nil, nil, err
	}
	t.Battery.Dummy = t.DummyI2c
	if err := t.Battery.Init(t.Bus()); err != nil {
		return nil, nil, err
	}
	left, err := motor.NewPair("left", t.Motors.Left(), nil)
	if err != nil {
		return nil, nil, err
	}
	right, err := motor.NewPair("right", t.Motors.Right(), nil)
	return left, right, err
}

// setupSimulation creates two simulated controllers per side, the second one following the first.
func (t *Tank) setupSimulation() (*motor.Pair, *motor.Pair, error) {
	t.sims = []*motor.Sim{motor.NewSim(1), motor.NewSim(2), motor.NewSim(3), motor.NewSim(4)}
	left, err := motor.NewPair("left", t.sims[0], t.sims[1])
	if err != nil {
		return nil, nil, err
	}
	right, err := motor.NewPair("right", t.sims[2], t.sims[3])
	return left, right, err
}

// Bus returns the I2C bus, opened on the first call.
func (t *Tank) Bus() I2cBus {
	if t.sequencer != nil {
		return t.sequencer
	}
	var bus I2cBus
	if t.DummyI2c {
		bus = new(dummyI2cBus)
	} else {
		if t.devfs == nil {
			t.devfs = &devfsI2cBus{Dev: t.I2cDevice}
		}
		bus = t.devfs
	}
	if t.NoI2cSequencer {
		return bus
	}
	t.sequencer = newSequencedI2cBus(bus, t.I2cRequestQueue)
	return t.sequencer
}

// Drive returns the drive controller created by Setup.
func (t *Tank) Drive() *drive.Controller {
	return t.drive
}

// Simulated returns the primary simulated controllers of the left and right side, or nil outside of dummy mode.
func (t *Tank) Simulated() (left, right *motor.Sim) {
	if len(t.sims) == 0 {
		return nil, nil
	}
	return t.sims[0], t.sims[2]
}

// Tick checks the battery and advances the simulated motors.
func (t *Tank) Tick(dt time.Duration) {
	t.Battery.Check(dt)
	left, right := t.Simulated()
	if left == nil {
		return
	}
	left.Step(dt)
	right.Step(dt)
	geometry := t.DriveConfig.Geometry
	log.Debugf("Simulated drivetrain: left %.3fm, right %.3fm, heading %.1f°",
		geometry.EncoderToLinear(left.Position()), geometry.EncoderToLinear(right.Position()),
		geometry.EncoderToAngle((left.Position()-right.Position())/2))
}

// Cleanup stops the motors and releases the I2C bus.
func (t *Tank) Cleanup() error {
	var err error
	if t.drive != nil {
		err = t.drive.Stop()
	}
	if t.Motors.bus != nil {
		err = multierr.Append(err, t.Motors.ForceSet(0, 0))
		t.Motors.bus = nil
	}
	t.Battery.bus = nil
	if t.sequencer != nil {
		t.sequencer.Close()
		t.sequencer = nil
	}
	if t.devfs != nil {
		err = multierr.Append(err, t.devfs.Close())
		t.devfs = nil
	}
	return errors.Wrap(err, "tank cleanup")
}
