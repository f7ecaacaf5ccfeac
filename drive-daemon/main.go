package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/antongulenko/golib"
	"github.com/antongulenko/skidsteer/command"
	"github.com/antongulenko/skidsteer/tank"
	log "github.com/sirupsen/logrus"
	"github.com/splace/joysticks"
)

func main() {
	d := newDaemon()
	d.registerFlags()
	golib.RegisterFlags(golib.FlagsAll)
	flag.Parse()
	golib.ConfigureLogging()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// "Clean" shutdown with Ctrl-C signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	var cleanupOnce sync.Once
	cleanup := func() {
		cleanupOnce.Do(d.stop)
	}
	defer cleanup()
	go func() {
		fmt.Println("Received signal", <-c)
		cancel()
	}()

	golib.Checkerr(d.setup())
	d.run(ctx) // Returns after a signal
}

type daemon struct {
	tank     tank.Tank
	teleop   teleop
	routines routines

	routine               string
	period                time.Duration
	writeConfig           string
	noJoystick            bool
	joystickIndex         int
	joystickRetryDuration time.Duration
	routineButton         int
	toggleModeButton      int

	scheduler command.Scheduler
}

func newDaemon() *daemon {
	arcadeAxis := JoystickAxis{
		AxisNumber:      1,
		ZeroFrom:        -0.15,
		ZeroTo:          0.1,
		InvertY:         true,
		ScaleZeroFromTo: true,
	}
	rightAxis := arcadeAxis
	rightAxis.AxisNumber = 3
	return &daemon{
		tank: tank.DefaultTank,
		teleop: teleop{
			ArcadeAxis: arcadeAxis,
			LeftAxis:   arcadeAxis,
			RightAxis:  rightAxis,
			Ramp: tank.Ramp{
				AccelSlopeTime: 400 * time.Millisecond,
				DecelSlopeTime: 300 * time.Millisecond,
			},
		},
		routines:              defaultRoutines,
		routine:               "none",
		period:                20 * time.Millisecond,
		joystickIndex:         1,
		joystickRetryDuration: 2 * time.Second,
		routineButton:         1,
		toggleModeButton:      2,
	}
}

func (d *daemon) registerFlags() {
	d.tank.RegisterFlags()
	d.teleop.registerFlags()
	d.routines.registerFlags()
	flag.StringVar(&d.routine, "auto", d.routine, fmt.Sprintf("Autonomous routine started immediately and by the routine button (%v)", routineNames))
	flag.DurationVar(&d.period, "period", d.period, "Period of the drive control loop")
	flag.StringVar(&d.writeConfig, "write-drive-config", d.writeConfig, "Write the drive config in use to the given YAML file")
	flag.BoolVar(&d.noJoystick, "no-js", d.noJoystick, "Do not connect a joystick")
	flag.IntVar(&d.joystickIndex, "js", d.joystickIndex, "Joystick device index")
	flag.DurationVar(&d.joystickRetryDuration, "js-retry", d.joystickRetryDuration, "Time to retry joystick initialization")
	flag.IntVar(&d.routineButton, "routine-button", d.routineButton, "Joystick button index that starts or cancels the autonomous routine")
	flag.IntVar(&d.toggleModeButton, "toggle-mode-button", d.toggleModeButton, "Joystick button index that toggles between arcade and tank mode (long press)")
}

func (d *daemon) setup() error {
	if d.period <= 0 {
		return fmt.Errorf("Invalid control loop period %v", d.period)
	}
	if err := d.tank.Setup(); err != nil {
		return err
	}
	if d.writeConfig != "" {
		golib.Printerr(d.tank.DriveConfig.WriteConfig(d.writeConfig))
	}
	cmd, err := d.routines.command(d.routine, d.tank.Drive())
	if err != nil || cmd == nil {
		return err
	}
	return d.scheduler.Start(cmd)
}

func (d *daemon) run(ctx context.Context) {
	if !d.noJoystick {
		go d.waitAndInitJoysticks(ctx)
	}
	log.Printf("Running drive control loop every %v (teleop mode: %v)", d.period, d.teleop.modeName())
	d.scheduler.RunEvery(ctx, d.period, d.tank.Tick, d.tick)
}

// tick runs before the scheduler in every control cycle. Teleop only drives while no routine is running.
func (d *daemon) tick(dt time.Duration) {
	in := d.teleop.take()
	if in.toggleRoutine {
		d.toggleRoutine()
	}
	if !d.scheduler.Idle() {
		return
	}
	if _, err := d.teleop.drive(d.tank.Drive(), in, dt); err != nil {
		log.Errorln("Teleop drive failed:", err)
	}
}

func (d *daemon) toggleRoutine() {
	if !d.scheduler.Idle() {
		golib.Printerr(d.scheduler.Cancel())
		return
	}
	cmd, err := d.routines.command(d.routine, d.tank.Drive())
	if err != nil {
		log.Errorln(err)
	} else if cmd == nil {
		log.Warnln("No autonomous routine selected, use -auto")
	} else {
		golib.Printerr(d.scheduler.Start(cmd))
	}
}

func (d *daemon) stop() {
	golib.Printerr(d.scheduler.Cancel())
	golib.Printerr(d.tank.Cleanup())
}

func (d *daemon) waitAndInitJoysticks(ctx context.Context) {
	// Wait until Joysticks can be initialized successfully
	for {
		js, err := d.setupJoysticks()
		if err == nil {
			log.Printf("Opened joystick device index %v (%v buttons, %v axes, %v events)", d.joystickIndex, len(js.Buttons), len(js.HatAxes), len(js.Events))
			js.ParcelOutEvents() // Does not return
			return
		}
		log.Errorf("Failed to setup Joysticks: %v. Retrying in %v...", err, d.joystickRetryDuration)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.joystickRetryDuration):
		}
	}
}

func (d *daemon) setupJoysticks() (*joysticks.HID, error) {
	js := joysticks.Connect(d.joystickIndex)
	if js == nil {
		return nil, fmt.Errorf("Failed to open joystick with index %v", d.joystickIndex)
	}
	err := notifyAxes(js,
		axisBinding{&d.teleop.ArcadeAxis, d.teleop.setArcade},
		axisBinding{&d.teleop.LeftAxis, d.teleop.setLeft},
		axisBinding{&d.teleop.RightAxis, d.teleop.setRight})
	if err != nil {
		return nil, err
	}

	routineButton := uint8(d.routineButton)
	if !js.ButtonExists(routineButton) {
		return nil, fmt.Errorf("Button for the autonomous routine (index %v) does not exist on joystick", routineButton)
	}
	pressed := js.OnClose(routineButton)
	go func() {
		for range pressed {
			d.teleop.requestRoutine()
		}
	}()

	modeButton := uint8(d.toggleModeButton)
	if !js.ButtonExists(modeButton) {
		return nil, fmt.Errorf("Button for toggling the teleop mode (index %v) does not exist on joystick", modeButton)
	}
	toggleMode := js.OnLong(modeButton)
	go func() {
		for range toggleMode {
			d.teleop.requestModeToggle()
		}
	}()
	return js, nil
}
