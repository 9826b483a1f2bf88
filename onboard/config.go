package onboard

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/Masterminds/semver"
	"gopkg.in/yaml.v2"
)

// CONFIG_VERSION constrains which config revisions this build understands.
const CONFIG_VERSION = "~2.0"

type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type HexastatConfig struct {
	Version   string              `yaml:"version"`
	Mode      string              `yaml:"mode"` // "serial" or "simulator"
	Serial    SerialConfig        `yaml:"serial"`
	Gains     Gains               `yaml:"gains"`
	Telemetry TelemetryConfig     `yaml:"telemetry"`
	Actuators []CalibrationBounds `yaml:"actuators"`

	// CycleIntervalMS inserts an idle gap between control cycles; zero runs
	// the loop flat out.
	CycleIntervalMS int `yaml:"cycle_interval_ms"`
}

func LoadConfig(filename string) (config *HexastatConfig, err error) {
	raw, err := ioutil.ReadFile(filename)
	if err != nil {
		return
	}

	config = new(HexastatConfig)
	if err = yaml.Unmarshal(raw, config); err != nil {
		return nil, err
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return
}

// Validate checks the version gate and actuator arity before the config is
// allowed anywhere near a device.
func (c *HexastatConfig) Validate() error {
	ver, err := semver.NewVersion(c.Version)
	if err != nil {
		return fmt.Errorf("config version %q is not a semantic version: %v", c.Version, err)
	}

	constraint, err := semver.NewConstraint(CONFIG_VERSION)
	if err != nil {
		return err
	}
	if !constraint.Check(ver) {
		return fmt.Errorf("unable to use config version %s - require %s", c.Version, CONFIG_VERSION)
	}

	if len(c.Actuators) != NUM_ACTUATORS {
		return fmt.Errorf("expected %d actuators in config, got %d", NUM_ACTUATORS, len(c.Actuators))
	}

	for i, b := range c.Actuators {
		if b.RawMax <= b.RawMin {
			return fmt.Errorf("actuator %d: raw_max %d must exceed raw_min %d", i, b.RawMax, b.RawMin)
		}
	}

	return nil
}

func (c *HexastatConfig) CycleInterval() time.Duration {
	return time.Duration(c.CycleIntervalMS) * time.Millisecond
}
