package main

import (
	"testing"
	"time"

	"github.com/antongulenko/skidsteer/command"
	"github.com/antongulenko/skidsteer/drive"
	"github.com/antongulenko/skidsteer/tank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoystickAxis(t *testing.T) {
	a := assert.New(t)
	axis := JoystickAxis{ZeroFrom: -0.15, ZeroTo: 0.1}
	test := func(x, y, expectX, expectY float64) {
		resX, resY := axis.Convert(x, y)
		a.InDelta(expectX, resX, 1e-9)
		a.InDelta(expectY, resY, 1e-9)
	}

	// Zero interval
	test(0, 0, 0, 0)
	test(0.1, -0.15, 0, 0)
	test(-0.1, 0.05, 0, 0)

	// Unscaled values outside the zero interval
	test(0.5, -0.5, 0.5, -0.5)
	test(1, -1, 1, -1)

	axis.ScaleZeroFromTo = true
	test(0.55, -0.575, 0.5, -0.5)
	test(1, -1, 1, -1)
	test(0.11, -0.16, (0.11-0.1)/0.9, -0.01/0.85)

	axis.InvertX = true
	axis.InvertY = true
	test(0.55, 1, -0.4/0.85, -1)
	test(-1, 0.12, 1, 0)
}

func TestLimitTurn(t *testing.T) {
	a := assert.New(t)
	test := func(speed, turn, expect float64) {
		a.InDelta(expect, limitTurn(speed, turn), 1e-9)
	}
	test(0, 1, 1)
	test(0, -0.5, -0.5)
	test(1, 1, 0.5)
	test(-1, 1, 0.5)
	test(0.5, -1, -0.75)
	test(1, 0, 0)
}

func TestRoutines(t *testing.T) {
	a := assert.New(t)
	r := defaultRoutines
	for _, name := range routineNames {
		cmd, err := r.command(name, nil)
		a.NoError(err, name)
		if name == "none" {
			a.Nil(cmd)
		} else {
			a.NotNil(cmd, name)
		}
	}

	cmd, err := r.command("square", nil)
	a.NoError(err)
	a.IsType(new(command.Sequence), cmd)
	a.Len(cmd.(*command.Sequence).Commands, 8)

	cmd, err = r.command("move", nil)
	a.NoError(err)
	a.Equal(1.0, cmd.(*command.Move).Distance)

	cmd, err = r.command("", nil)
	a.NoError(err)
	a.Nil(cmd)

	_, err = r.command("dance", nil)
	a.Error(err)
}

func TestTeleopTake(t *testing.T) {
	a := assert.New(t)
	var op teleop
	op.setArcade(0.3, 0.7)
	op.setLeft(1, -0.2)
	op.setRight(1, 0.4)
	in := op.take()
	a.Equal(teleopInputs{speed: 0.7, turn: 0.3, left: -0.2, right: 0.4}, in)
	a.False(op.TankMode)

	op.requestModeToggle()
	op.requestRoutine()
	in = op.take()
	a.True(in.toggleRoutine)
	a.True(op.TankMode)
	a.Equal("tank", op.modeName())

	// Requests are cleared after being taken
	in = op.take()
	a.False(in.toggleRoutine)
	a.True(op.TankMode)

	op.requestModeToggle()
	op.take()
	a.False(op.TankMode)
	a.Equal("arcade", op.modeName())
}

func dummyDaemon(t *testing.T) *daemon {
	d := newDaemon()
	d.tank.Dummy = true
	d.teleop.Ramp = tank.Ramp{}
	require.NoError(t, d.setup())
	return d
}

func TestDaemonTeleop(t *testing.T) {
	a := assert.New(t)
	d := dummyDaemon(t)
	left, right := d.tank.Simulated()
	step := 20 * time.Millisecond

	test := func(expectL, expectR float64) {
		d.tick(step)
		a.InDelta(expectL, left.Value, 1e-9)
		a.InDelta(expectR, right.Value, 1e-9)
	}

	// Arcade mode, squared inputs
	test(0, 0)
	d.teleop.setArcade(0, 0.5)
	test(0.25, 0.25)
	d.teleop.setArcade(0.5, 0)
	test(0.25, -0.25)
	d.teleop.setArcade(0, -1)
	test(-1, -1)

	// Tank mode
	d.teleop.requestModeToggle()
	d.teleop.setLeft(0, 0.5)
	d.teleop.setRight(0, -1)
	test(0.25, -1)

	a.NoError(d.tank.Cleanup())
	a.Equal(0.0, left.Value)
	a.Equal(0.0, right.Value)
}

func TestDaemonRoutine(t *testing.T) {
	a := assert.New(t)
	d := dummyDaemon(t)
	step := 20 * time.Millisecond

	// No routine selected
	d.teleop.requestRoutine()
	d.tick(step)
	a.True(d.scheduler.Idle())

	d.routine = "move"
	d.teleop.requestRoutine()
	d.tick(step)
	a.False(d.scheduler.Idle())

	// Teleop inputs are ignored while the routine runs
	d.teleop.setArcade(0, 1)
	d.tick(step)
	a.NoError(d.scheduler.Run())
	a.Equal(drive.PositionHold, d.tank.Drive().Mode())

	d.teleop.requestRoutine()
	d.tick(step)
	a.True(d.scheduler.Idle())
	a.Equal(drive.PercentOutput, d.tank.Drive().Mode())

	d.routine = "unknown"
	d.teleop.requestRoutine()
	d.tick(step)
	a.True(d.scheduler.Idle())
	a.NoError(d.tank.Cleanup())
}

func TestDaemonSetup(t *testing.T) {
	d := newDaemon()
	d.tank.Dummy = true
	d.routine = "turn"
	require.NoError(t, d.setup())
	assert.False(t, d.scheduler.Idle())
	d.stop()
	assert.True(t, d.scheduler.Idle())

	d = newDaemon()
	d.tank.Dummy = true
	d.period = 0
	assert.Error(t, d.setup())

	d = newDaemon()
	d.tank.Dummy = true
	d.routine = "unknown"
	assert.Error(t, d.setup())
}
