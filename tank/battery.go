package tank

import (
	"flag"
	"time"

	"github.com/antongulenko/skidsteer/ads1115"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Measure diff AIN0 to AIN3 continuously in 0..6V, comparator disabled
const adcConfig = ads1115.CONFIG_MUX_03 | ads1115.CONFIG_DR_32 | ads1115.CONFIG_PGA_6V | ads1115.CONFIG_COMP_QUE_OFF

// Battery monitors the battery voltage through an ADS1115 behind a voltage divider.
type Battery struct {
	I2cAddr  byte
	Disabled bool
	Dummy    bool // Report BatteryMax without accessing the ADC

	// Battery voltage per ADC input voltage
	Divider    float64
	BatteryMin float64
	BatteryMax float64

	CheckInterval time.Duration

	bus        I2cBus
	sinceCheck time.Duration
	low        bool
}

func (b *Battery) RegisterFlags() {
	flag.BoolVar(&b.Disabled, "no-battery", b.Disabled, "Disable the battery voltage monitor")
	flag.Float64Var(&b.BatteryMin, "battery-min", b.BatteryMin, "Battery voltage considered empty")
	flag.Float64Var(&b.BatteryMax, "battery-max", b.BatteryMax, "Battery voltage considered full")
	flag.DurationVar(&b.CheckInterval, "battery-interval", b.CheckInterval, "Interval for checking the battery voltage")
}

func (b *Battery) Init(bus I2cBus) error {
	if b.Disabled {
		return nil
	}
	b.bus = bus
	if b.Dummy {
		log.Println("Skipping initialization of ADC")
		return nil
	}
	log.Printf("Initializing ADC device at %#02x...", b.I2cAddr)
	err := ads1115.WriteRegister(bus, b.I2cAddr, ads1115.REG_CONFIG, adcConfig)
	if err == nil {
		// Configure the address of the register to be read by future reads
		err = bus.I2cWrite(b.I2cAddr, ads1115.REG_CONVERSION)
	}
	return errors.Wrap(err, "battery monitor")
}

func (b *Battery) Voltage() (float64, error) {
	if b.bus == nil {
		return 0, errors.New("battery monitor not initialized")
	}
	if b.Dummy {
		return b.BatteryMax, nil
	}
	val, err := ads1115.ReadConversion(b.bus, b.I2cAddr)
	if err != nil {
		return 0, err
	}
	return float64(val) * ads1115.CONVERT_6V * b.Divider, nil
}

// Percentage maps the voltage linearly between BatteryMin and BatteryMax to 0..1.
func (b *Battery) Percentage(voltage float64) float64 {
	if voltage <= b.BatteryMin {
		return 0
	}
	if voltage >= b.BatteryMax {
		return 1
	}
	return (voltage - b.BatteryMin) / (b.BatteryMax - b.BatteryMin)
}

// Check reads the voltage once per CheckInterval of accumulated time and warns when the battery runs low.
func (b *Battery) Check(dt time.Duration) {
	if b.bus == nil {
		return
	}
	b.sinceCheck += dt
	if b.sinceCheck < b.CheckInterval {
		return
	}
	b.sinceCheck = 0
	voltage, err := b.Voltage()
	if err != nil {
		log.Errorln("Error querying battery voltage:", err)
		return
	}
	low := voltage <= b.BatteryMin
	if low && !b.low {
		log.Warnf("Battery low: %.2fV", voltage)
	} else if !low && b.low {
		log.Printf("Battery recovered: %.2fV", voltage)
	}
	b.low = low
	log.Debugf("Battery: %.2fV (%.0f%%)", voltage, b.Percentage(voltage)*100)
}

// Low reports whether the last check found the battery at or below BatteryMin.
func (b *Battery) Low() bool {
	return b.low
}
