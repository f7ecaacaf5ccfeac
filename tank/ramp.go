package tank

import (
	"flag"
	"math"
	"time"
)

// Ramp limits how fast a teleop input in -1..1 may change, separately for accelerating and decelerating.
type Ramp struct {
	AccelSlopeTime time.Duration // Minimum time between 0 and 100%, no limit if zero
	DecelSlopeTime time.Duration // Minimum time between 100% and 0%, no limit if zero
	MinOutput      float64       // Non-zero outputs are scaled into MinOutput..1

	current float64
}

func (r *Ramp) RegisterFlags(prefix string) {
	flag.DurationVar(&r.AccelSlopeTime, prefix+"accel-slope-time", r.AccelSlopeTime, "Minimum time for an input to ramp up between 0% and 100%")
	flag.DurationVar(&r.DecelSlopeTime, prefix+"decel-slope-time", r.DecelSlopeTime, "Minimum time for an input to ramp down between 100% and 0%")
	flag.Float64Var(&r.MinOutput, prefix+"min-output", r.MinOutput, "Minimum non-zero output (0..1)")
}

// Step moves the current value towards the target by at most one slope step for the elapsed time,
// and returns the resulting output.
func (r *Ramp) Step(target float64, dt time.Duration) float64 {
	target = math.Max(-1, math.Min(target, 1))
	cur := r.current
	forward := cur > 0         // Currently driving forward
	increasing := target > cur // Target momentum is more forward-oriented than currently
	slope := r.DecelSlopeTime

	// Moving away from zero accelerates
	if (forward == increasing && cur != 0) || (cur == 0 && target != 0) {
		slope = r.AccelSlopeTime
	}
	step := math.Inf(1)
	if slope > 0 {
		step = float64(dt) / float64(slope)
	}
	if math.Abs(cur-target) <= step {
		r.current = target
	} else if increasing {
		r.current = cur + step
	} else {
		r.current = cur - step
	}
	return r.Output()
}

// Output applies MinOutput to the current value.
func (r *Ramp) Output() float64 {
	val := r.current
	min := r.MinOutput
	if min > 0 && min < 1 && val != 0 {
		if val < 0 {
			val = -min + (1-min)*val
		} else {
			val = min + (1-min)*val
		}
	}
	return val
}

func (r *Ramp) Reset() {
	r.current = 0
}
