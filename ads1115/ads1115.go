package ads1115

import (
	"fmt"
)

const (
	// The ADDR pin can be connected to one of the following 4 pins to select the respective I2C address
	ADDR_GND = byte(0x48)
	ADDR_VDD = byte(0x49)
	ADDR_SDA = byte(0x4A)
	ADDR_SCL = byte(0x4B)
)

const (
	// The addresses of the writable/readable registers
	REG_CONVERSION = byte(iota)
	REG_CONFIG
	REG_LO_THRESH // Default: 0x8000, relevant for CONFIG_COMP_* bits
	REG_HI_THRESH // Default: 0x7FFF
)

// Bits for the CONFIG register

const (
	// Operational State. If written, starts a one-short conversion.
	// If read, indicates whether conversion is taking place (1 = NO operation)
	CONFIG_OS = uint16(0x8000)
)

const (
	// Selection of inputs. First number is the positive input, second number the negative input.
	// Example: CONFIG_MUX_01 compares AIN0 to AIN1. CONFIG_MUX_1GND compares AIN1 to GND
	CONFIG_MUX_01 = uint16(iota) << 12
	CONFIG_MUX_03
	CONFIG_MUX_13
	CONFIG_MUX_23
	CONFIG_MUX_0GND
	CONFIG_MUX_1GND
	CONFIG_MUX_2GND
	CONFIG_MUX_3GND
)

const (
	// Selection of Full Scale (max input voltage values when converting)
	CONFIG_PGA_6V    = uint16(iota) << 9 // 6.144V
	CONFIG_PGA_4V                        // 4.096V
	CONFIG_PGA_2V                        // 2.048V
	CONFIG_PGA_1V                        // 1.024V
	CONFIG_PGA_0_5V                      // 0.512V
	CONFIG_PGA_0_25V                     // 0.256V

	// Mode bit: 1 = single-shot mode/power down. 0 = continuous mode
	CONFIG_MODE = uint16(0x100)
)

const (
	// Data conversion rate (samples per second). higher rate -> lower accuracy/resolution
	CONFIG_DR_8 = uint16(iota) << 5
	CONFIG_DR_16
	CONFIG_DR_32
	CONFIG_DR_64
	CONFIG_DR_128
	CONFIG_DR_250
	CONFIG_DR_475
	CONFIG_DR_860

	// Number of successive comparisons exceeding the thresholds, after which the ALERT/RDY pin will be activated
	CONFIG_COMP_QUE_1   = uint16(0)
	CONFIG_COMP_QUE_2   = uint16(1)
	CONFIG_COMP_QUE_4   = uint16(2)
	CONFIG_COMP_QUE_OFF = uint16(3)
)

// Volts per bit of the conversion register for the full scale ranges
const (
	CONVERT_6V = 6.144 / 32768
	CONVERT_4V = 4.096 / 32768
	CONVERT_2V = 2.048 / 32768
)

// Bus is the part of an I2C bus used to access the ADC.
type Bus interface {
	I2cWrite(addr byte, data ...byte) error
	I2cRead(addr byte, data []byte) error
}

func WriteRegister(bus Bus, i2cAddr byte, register byte, val uint16) error {
	return bus.I2cWrite(i2cAddr, register, byte(val>>8), byte(val))
}

// ReadConversion reads the register selected by the last write, which must be REG_CONVERSION.
func ReadConversion(bus Bus, i2cAddr byte) (int16, error) {
	v := make([]byte, 2)
	if err := bus.I2cRead(i2cAddr, v); err != nil {
		return 0, fmt.Errorf("ADS1115 at %#02x: %v", i2cAddr, err)
	}
	return ParseConversion(v), nil
}

// ParseConversion decodes the big endian two's complement conversion register.
func ParseConversion(v []byte) int16 {
	result := int16(v[1])      // Least-significant byte
	result |= int16(v[0]) << 8 // Most-significant byte
	return result
}
