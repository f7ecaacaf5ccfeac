package main

import (
	"flag"
	"math"
	"sync"
	"time"

	"github.com/antongulenko/skidsteer/drive"
	"github.com/antongulenko/skidsteer/tank"
	log "github.com/sirupsen/logrus"
)

// teleop holds the latest joystick inputs. The joystick goroutines write them,
// the control loop reads them once per tick.
type teleop struct {
	ArcadeAxis JoystickAxis // Y: speed, X: turn
	LeftAxis   JoystickAxis // Y in tank mode
	RightAxis  JoystickAxis // Y in tank mode
	TankMode   bool
	Ramp       tank.Ramp

	lock          sync.Mutex
	speed, turn   float64
	left, right   float64
	toggleRoutine bool
	toggleMode    bool

	ramps [2]tank.Ramp
}

func (t *teleop) registerFlags() {
	t.ArcadeAxis.RegisterFlags("arcade", "arcade driving (Y: speed, X: turn)")
	t.LeftAxis.RegisterFlags("left", "the left side in tank mode")
	t.RightAxis.RegisterFlags("right", "the right side in tank mode")
	t.Ramp.RegisterFlags("")
	flag.BoolVar(&t.TankMode, "tank-mode", t.TankMode, "Start in tank mode (one stick per side) instead of arcade mode")
}

func (t *teleop) setArcade(x, y float64) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.speed, t.turn = y, x
}

func (t *teleop) setLeft(_, y float64) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.left = y
}

func (t *teleop) setRight(_, y float64) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.right = y
}

// requestRoutine starts the autonomous routine in the next tick, or cancels it if it is running.
func (t *teleop) requestRoutine() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.toggleRoutine = true
}

func (t *teleop) requestModeToggle() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.toggleMode = true
}

type teleopInputs struct {
	speed, turn, left, right float64
	toggleRoutine            bool
}

// take returns the current inputs and applies and clears a pending mode toggle.
func (t *teleop) take() teleopInputs {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.toggleMode {
		t.toggleMode = false
		t.TankMode = !t.TankMode
		t.ramps[0].Reset()
		t.ramps[1].Reset()
		log.Printf("Teleop mode: %v", t.modeName())
	}
	in := teleopInputs{
		speed:         t.speed,
		turn:          t.turn,
		left:          t.left,
		right:         t.right,
		toggleRoutine: t.toggleRoutine,
	}
	t.toggleRoutine = false
	return in
}

func (t *teleop) modeName() string {
	if t.TankMode {
		return "tank"
	}
	return "arcade"
}

// drive sends the inputs to the drivetrain, ramped by the elapsed time.
func (t *teleop) drive(d *drive.Controller, in teleopInputs, dt time.Duration) (drive.Result, error) {
	for i := range t.ramps {
		t.ramps[i].AccelSlopeTime = t.Ramp.AccelSlopeTime
		t.ramps[i].DecelSlopeTime = t.Ramp.DecelSlopeTime
		t.ramps[i].MinOutput = t.Ramp.MinOutput
	}
	if t.TankMode {
		left := t.ramps[0].Step(in.left, dt)
		right := t.ramps[1].Step(in.right, dt)
		return d.TankDrive(left, right)
	}
	speed := t.ramps[0].Step(in.speed, dt)
	return d.ArcadeDrive(speed, limitTurn(speed, in.turn))
}

// limitTurn reduces the turn coefficient at higher speeds: full turn rate when
// standing, half the turn rate at full speed.
func limitTurn(speed, turn float64) float64 {
	maxTurnFactor := 1 - math.Abs(speed)/2
	return maxTurnFactor * turn
}
