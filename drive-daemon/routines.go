package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/antongulenko/skidsteer/command"
	"github.com/antongulenko/skidsteer/kinematics"
)

var routineNames = []string{"none", "move", "turn", "square", "curve", "speed"}

// routines configures the autonomous routines selectable by name.
type routines struct {
	Distance       float64
	Tolerance      float64
	Angle          float64
	AngleTolerance float64
	SquareSide     float64
	CurveSpeed     float64
	CurveRadius    float64
	Speed          float64
	SpeedCycles    int
}

var defaultRoutines = routines{
	Distance:       kinematics.Forward * 1,
	Tolerance:      0.05,
	Angle:          kinematics.Right * 90,
	AngleTolerance: 1,
	SquareSide:     2,
	CurveSpeed:     kinematics.Forward * 0.2,
	CurveRadius:    kinematics.Left * 1.5,
	Speed:          0.5,
	SpeedCycles:    250,
}

func (r *routines) registerFlags() {
	flag.Float64Var(&r.Distance, "move-distance", r.Distance, "Distance in meters of the move routine (< 0: backward)")
	flag.Float64Var(&r.Tolerance, "move-tolerance", r.Tolerance, "Position tolerance in meters of the move and square routines")
	flag.Float64Var(&r.Angle, "turn-angle", r.Angle, "Angle in degrees of the turn routine (< 0: left)")
	flag.Float64Var(&r.AngleTolerance, "turn-tolerance", r.AngleTolerance, "Angle tolerance in degrees of the turn and square routines")
	flag.Float64Var(&r.SquareSide, "square-side", r.SquareSide, "Side length in meters of the square routine")
	flag.Float64Var(&r.CurveSpeed, "curve-speed", r.CurveSpeed, "Outer speed coefficient (-1..1) of the curve routine")
	flag.Float64Var(&r.CurveRadius, "curve-radius", r.CurveRadius, "Radius in meters of the curve routine (< 0: left)")
	flag.Float64Var(&r.Speed, "speed", r.Speed, "Speed in m/s of the speed routine")
	flag.IntVar(&r.SpeedCycles, "speed-cycles", r.SpeedCycles, "Number of control cycles of the speed routine (0: until cancelled)")
}

// command returns the routine with the given name, or nil for "none".
func (r *routines) command(name string, d command.Drivetrain) (command.Command, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "move":
		return command.NewMove(d, r.Distance, r.Tolerance), nil
	case "turn":
		return command.NewTurn(d, r.Angle, r.AngleTolerance), nil
	case "square":
		return command.Square(d, r.SquareSide, r.Tolerance, r.AngleTolerance), nil
	case "curve":
		return &command.Curve{Drive: d, Speed: r.CurveSpeed, Radius: r.CurveRadius}, nil
	case "speed":
		return &command.HoldSpeed{Drive: d, Speed: r.Speed, Cycles: r.SpeedCycles}, nil
	default:
		return nil, fmt.Errorf("Unknown autonomous routine '%v' (available: %v)", name, strings.Join(routineNames, ", "))
	}
}
