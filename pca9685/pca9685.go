// Package pca9685 encodes register values for the PCA9685 16-channel PWM controller.
// It does not talk to the device, the byte slices are written by the caller.
package pca9685

import (
	"fmt"
	"math"
)

// Registers. Every output channel n has 4 registers starting at LED0 + 4*n: ON_L, ON_H, OFF_L, OFF_H.
const (
	MODE1 = byte(0x00)
	MODE2 = byte(0x01)

	LED0 = byte(0x06)

	ALL_LEDS  = byte(0xFA)
	PRE_SCALE = byte(0xFE) // Only settable in SLEEP mode. Default value: 0x1E
)

// Default values all zero, except ALLCALL and SLEEP
const (
	MODE1_ALLCALL = byte(1 << iota) // 1: Respond to ALLCALL address
	MODE1_SUB3
	MODE1_SUB2
	MODE1_SUB1
	MODE1_SLEEP   // 0: normal mode 1: oscillator off, low power mode
	MODE1_AI      // 1: Register auto increment
	MODE1_EXTCLK  // 1: use EXTCLK pin as clock source
	MODE1_RESTART // Write 1: wake up from SLEEP. Only possible if read as 1, after setting SLEEP.
)

const (
	ADDRESS     = byte(0x40)
	ADDRESS_MAX = byte(0x7F)

	NUM_CHANNELS     = 16
	BYTE_PER_OUTPUT  = 4
	TIMER_MAX        = 4095
	TIMER_RESOLUTION = TIMER_MAX + 1

	FULL_ON_BIT  = 0x10 // bit 4 of LEDn_ON_H.
	FULL_OFF_BIT = 0x10 // bit 4 of LEDn_OFF_H. Takes precedence over the FULL_ON_BIT.

	FREQ_MIN            = 23.84185791
	FREQ_MAX            = 1525.87890625
	FREQ_MIN_PRESCALE   = byte(0xFF)
	FREQ_MAX_PRESCALE   = byte(0x03) // Minimum value asserted by hardware
	INTERNAL_OSCILLATOR = 25000000   // 25 MHz
)

// Channel returns the first register of the given output channel.
func Channel(n int) (byte, error) {
	if n < 0 || n >= NUM_CHANNELS {
		return 0, fmt.Errorf("PCA9685 channel %v out of range (0..%v)", n, NUM_CHANNELS-1)
	}
	return LED0 + byte(n)*BYTE_PER_OUTPUT, nil
}

// Registers holds the values of ON_L, ON_H, OFF_L, OFF_H of one output channel.
type Registers [BYTE_PER_OUTPUT]byte

// DutyCycle encodes an on-time fraction in [0, 1] without delay.
// The end points are encoded with the full on/off bits.
func DutyCycle(onTime float64) Registers {
	switch {
	case onTime <= 0 || math.IsNaN(onTime):
		return FullOff()
	case onTime >= 1:
		return FullOn()
	}
	r, _ := DelayedDutyCycle(0, onTime)
	return r
}

// DelayedDutyCycle encodes an on-time starting after the given delay, both fractions of the PWM period in [0, 1].
func DelayedDutyCycle(delay, onTime float64) (Registers, error) {
	if !(delay >= 0 && delay <= 1 && onTime >= 0 && onTime <= 1) {
		return Registers{}, fmt.Errorf("Invalid PWM timer values delay=%v onTime=%v", delay, onTime)
	}
	delayCount := round(delay*TIMER_RESOLUTION - 1)
	onCount := round(onTime * TIMER_RESOLUTION) // Added to delayCount, so the -1 correction is not required anymore
	if delay == 0 {
		delayCount = 0
		if onCount > 0 {
			onCount--
		}
	}
	if onTime == 0 {
		onCount = 0
	}

	on := delayCount
	off := on + onCount
	if off > TIMER_RESOLUTION {
		// The delay pushes the end of the first on-time into the second PWM cycle
		off -= TIMER_RESOLUTION
	}
	return Registers{byte(on), byte(on >> 8), byte(off), byte(off >> 8)}, nil
}

func FullOn() Registers {
	return Registers{0, FULL_ON_BIT, 0, 0}
}

func FullOff() Registers {
	return Registers{0, 0, 0, FULL_OFF_BIT}
}

func round(f float64) int {
	return int(math.Floor(f + .5))
}

// Prescaler returns the PRE_SCALE value for the given PWM frequency with the internal oscillator.
func Prescaler(frequency float64) (byte, error) {
	return PrescalerExternalClock(INTERNAL_OSCILLATOR, frequency)
}

func PrescalerExternalClock(oscillator float64, frequency float64) (byte, error) {
	v := round(oscillator/(float64(TIMER_RESOLUTION)*frequency)) - 1
	if v < int(FREQ_MAX_PRESCALE) || v > int(FREQ_MIN_PRESCALE) {
		return 0, fmt.Errorf("PWM frequency %vHz out of range (prescale value %v)", frequency, v)
	}
	return byte(v), nil
}

// Outputs tracks the duty cycles of consecutive output channels and encodes
// only the smallest range of channels that changed.
type Outputs struct {
	First byte // Register of the first channel, e.g. LED0

	state []float64
	valid bool
}

// Update returns the register address followed by the new channel values, or nil if nothing changed.
func (o *Outputs) Update(values []float64) []byte {
	if len(o.state) != len(values) {
		o.state = make([]float64, len(values))
		o.valid = false
	}
	from, to := 0, len(values)
	if o.valid {
		for from < to && o.state[from] == values[from] {
			from++
		}
		for to > from && o.state[to-1] == values[to-1] {
			to--
		}
		if from >= to {
			return nil
		}
	}
	copy(o.state, values)
	o.valid = true

	data := make([]byte, 1, 1+(to-from)*BYTE_PER_OUTPUT)
	data[0] = o.First + byte(from)*BYTE_PER_OUTPUT
	for _, v := range values[from:to] {
		r := DutyCycle(v)
		data = append(data, r[:]...)
	}
	return data
}

// Invalidate forces the next Update to encode all channels.
func (o *Outputs) Invalidate() {
	o.valid = false
}

// State returns the duty cycles of the last Update.
func (o *Outputs) State() []float64 {
	return append([]float64(nil), o.state...)
}
