package drive

import (
	"fmt"
	"io/ioutil"
	"math"

	"github.com/antongulenko/skidsteer/kinematics"
	"github.com/antongulenko/skidsteer/motor"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var DefaultConfig = Config{
	Geometry: kinematics.DefaultGeometry,
	PositionGains: motor.Gains{
		P: 0.6,
		I: 0,
		D: 0.05,
		F: 0,
	},
	SpeedGains: motor.Gains{
		P: 0.1,
		I: 0.001,
		D: 0,
		F: 0.35,
	},
	SquaredInputs:    true,
	CurveSensitivity: 0.5,
	MaxOutput:        1,
}

// Config contains all constants of the drivetrain. It is fixed for the lifetime of a Controller.
type Config struct {
	Geometry      kinematics.Geometry `yaml:"geometry"`
	PositionGains motor.Gains         `yaml:"position_gains"`
	SpeedGains    motor.Gains         `yaml:"speed_gains"`

	// Square arcade and tank inputs for finer control at low speeds
	SquaredInputs bool `yaml:"squared_inputs"`

	// Sensitivity of curve driving, see Differential.Curve
	CurveSensitivity float64 `yaml:"curve_sensitivity"`

	// All percent outputs are scaled by this value (0..1]
	MaxOutput float64 `yaml:"max_output"`
}

func (c Config) Validate() error {
	if err := c.Geometry.Validate(); err != nil {
		return err
	}
	if !(c.CurveSensitivity > 0) || math.IsInf(c.CurveSensitivity, 1) {
		return fmt.Errorf("Invalid curve sensitivity %v (must be > 0)", c.CurveSensitivity)
	}
	if !(c.MaxOutput > 0 && c.MaxOutput <= 1) {
		return fmt.Errorf("Invalid max output %v (must be in (0, 1])", c.MaxOutput)
	}
	return nil
}

func (c Config) Differential() Differential {
	return Differential{
		SquaredInputs: c.SquaredInputs,
		Sensitivity:   c.CurveSensitivity,
		MaxOutput:     c.MaxOutput,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Values missing in the file keep their defaults.
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return config, errors.Wrap(err, "failed to read drive config")
	}
	if err := yaml.UnmarshalStrict(data, &config); err != nil {
		return config, errors.Wrapf(err, "failed to parse drive config %v", filename)
	}
	if err := config.Validate(); err != nil {
		return config, errors.Wrapf(err, "invalid drive config %v", filename)
	}
	log.Printf("Loaded drive config from %v: %v", filename, config.Geometry)
	return config, nil
}

// WriteConfig stores the config as YAML, for example to record the values in use.
func (c Config) WriteConfig(filename string) error {
	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}
	return errors.Wrapf(ioutil.WriteFile(filename, data, 0666), "failed to write drive config %v", filename)
}
