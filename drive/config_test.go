package drive

import (
	"io/ioutil"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, content string) string {
	filename := filepath.Join(t.TempDir(), "drive.yml")
	if err := ioutil.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestLoadConfig(t *testing.T) {
	a := assert.New(t)
	config, err := LoadConfig(writeFile(t, "max_output: 0.8\nsquared_inputs: false\n"))
	a.NoError(err)
	a.Equal(0.8, config.MaxOutput)
	a.False(config.SquaredInputs)
	a.Equal(DefaultConfig.Geometry, config.Geometry)
	a.Equal(DefaultConfig.PositionGains, config.PositionGains)
	a.Equal(DefaultConfig.CurveSensitivity, config.CurveSensitivity)

	config, err = LoadConfig(writeFile(t, `
geometry:
  wheel_radius_m: 0.1
  wheel_track_m: 0.5
  pulses_per_motor_rev: 360
  gear_ratio: 1
speed_gains:
  p: 1
  i: 2
  d: 3
  f: 4
`))
	a.NoError(err)
	a.Equal(0.5, config.Geometry.WheelTrack)
	a.Equal(360.0, config.Geometry.PulsesPerWheelRev())
	a.Equal(4.0, config.SpeedGains.F)
}

func TestLoadConfigErrors(t *testing.T) {
	a := assert.New(t)
	test := func(content string) {
		_, err := LoadConfig(writeFile(t, content))
		a.Error(err, "content: %v", content)
	}
	test("max_output: 0\n")
	test("max_output: 1.5\n")
	test("curve_sensitivity: -1\n")
	test("unknown_field: 3\n")
	test("geometry: {wheel_radius_m: 0.1, wheel_track_m: 0, pulses_per_motor_rev: 1, gear_ratio: 1}\n")
	test("max_output: [1, 2]\n")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	a.Error(err)
}

func TestWriteConfig(t *testing.T) {
	a := assert.New(t)
	config := DefaultConfig
	config.MaxOutput = 0.7
	config.PositionGains.I = 0.01
	filename := filepath.Join(t.TempDir(), "written.yml")
	a.NoError(config.WriteConfig(filename))
	loaded, err := LoadConfig(filename)
	a.NoError(err)
	a.Equal(config, loaded)
}

func TestConfigValidate(t *testing.T) {
	a := assert.New(t)
	a.NoError(DefaultConfig.Validate())
	config := DefaultConfig
	config.CurveSensitivity = math.Inf(1)
	a.Error(config.Validate())
	config = DefaultConfig
	config.MaxOutput = math.NaN()
	a.Error(config.Validate())
}
