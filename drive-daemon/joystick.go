package main

import (
	"flag"
	"fmt"

	"github.com/splace/joysticks"
)

type JoystickAxis struct {
	AxisNumber int

	// Positions between these values are bound to zero
	ZeroFrom, ZeroTo float64

	InvertX, InvertY bool

	// If true, scale the value range to adjust for zeroFrom/zeroTo and make the entire value range -1..1 available
	ScaleZeroFromTo bool
}

func (a *JoystickAxis) RegisterFlags(prefix string, desc string) {
	flag.IntVar(&a.AxisNumber, prefix, a.AxisNumber, "Index for joystick axis for "+desc)
	flag.BoolVar(&a.InvertX, prefix+"-invert-x", a.InvertX, "Invert X axis direction of "+desc)
	flag.BoolVar(&a.InvertY, prefix+"-invert-y", a.InvertY, "Invert Y axis direction of "+desc)
	flag.Float64Var(&a.ZeroFrom, prefix+"-zero-from", a.ZeroFrom, "Start of the zero interval of "+desc)
	flag.Float64Var(&a.ZeroTo, prefix+"-zero-to", a.ZeroTo, "End of the zero interval of "+desc)
	flag.BoolVar(&a.ScaleZeroFromTo, prefix+"-scale-zero", a.ScaleZeroFromTo, "Can be used to disable the value range adjustment after filtering based on zeroFrom/zeroTo for "+desc)
}

type axisBinding struct {
	axis *JoystickAxis
	hook func(x, y float64)
}

// notifyAxes calls the hooks with the converted coordinates of every movement of their axes.
// Several bindings may share one joystick axis, each with its own conversion.
func notifyAxes(js *joysticks.HID, bindings ...axisBinding) error {
	byAxis := make(map[int][]axisBinding)
	for _, b := range bindings {
		if !js.HatExists(uint8(b.axis.AxisNumber)) {
			return fmt.Errorf("Joystick axis (%v) does not exist on device", b.axis.AxisNumber)
		}
		byAxis[b.axis.AxisNumber] = append(byAxis[b.axis.AxisNumber], b)
	}
	for number, group := range byAxis {
		moved := js.OnMove(uint8(number))
		go func(group []axisBinding) {
			for event := range moved {
				coords := event.(joysticks.CoordsEvent)
				for _, b := range group {
					b.hook(b.axis.Convert(float64(coords.X), float64(coords.Y)))
				}
			}
		}(group)
	}
	return nil
}

func (a *JoystickAxis) Convert(x, y float64) (float64, float64) {
	if a.InvertX {
		x = -x
	}
	if a.InvertY {
		y = -y
	}
	return a.convert(x), a.convert(y)
}

func (a *JoystickAxis) convert(val float64) float64 {
	if val >= a.ZeroFrom && val <= a.ZeroTo {
		val = 0
	} else if a.ScaleZeroFromTo {
		// Scale the value range from [-1..zeroFrom] and [zeroTo..1] to [-1..0] and [0..1]
		if val > 0 {
			val = (val - a.ZeroTo) / (1 - a.ZeroTo)
		} else if val < 0 {
			val = (a.ZeroFrom - val) / (-1 - a.ZeroFrom)
		}
	}
	return val
}
