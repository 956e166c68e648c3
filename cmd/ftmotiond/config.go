package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/doismellburning/ftmotion/gpio"
	"github.com/doismellburning/ftmotion/motion"
)

// FileConfig is the on-disk daemon configuration, loaded from a YAML
// file named by --config-file. It mirrors motion.Config plus the
// hardware wiring motion.Config itself has no opinion about.
type FileConfig struct {
	SampleRate float64 `yaml:"sample_rate"`
	StepsPerMM struct {
		X, Y, Z, E float64
	} `yaml:"steps_per_mm"`

	Shaper struct {
		Mode     string     `yaml:"mode"`
		Zeta     [2]float64 `yaml:"zeta"`
		Vtol     [2]float64 `yaml:"vtol"`
		BaseFreq [2]float64 `yaml:"base_freq"`
	} `yaml:"shaper"`

	GPIOChip string      `yaml:"gpio_chip"`
	Pins     gpio.PinMap `yaml:"-"`
	PinsRaw  struct {
		StepX, StepY, StepZ, StepE int
		DirX, DirY, DirZ, DirE     int
	} `yaml:"pins"`

	DiscoveryName string `yaml:"discovery_name"`
	ControlPort   int    `yaml:"control_port"`
}

var shaperModeByName = map[string]motion.ShaperMode{
	"none": motion.ShaperNone, "zv": motion.ShaperZV, "zvd": motion.ShaperZVD,
	"zvdd": motion.ShaperZVDD, "zvddd": motion.ShaperZVDDD, "ei": motion.ShaperEI,
	"2hei": motion.Shaper2HEI, "3hei": motion.Shaper3HEI, "mzv": motion.ShaperMZV,
}

func loadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	fc.Pins = gpio.PinMap{
		Step: [motion.NumAxes]int{motion.AxisX: fc.PinsRaw.StepX, motion.AxisY: fc.PinsRaw.StepY, motion.AxisZ: fc.PinsRaw.StepZ, motion.AxisE: fc.PinsRaw.StepE},
		Dir:  [motion.NumAxes]int{motion.AxisX: fc.PinsRaw.DirX, motion.AxisY: fc.PinsRaw.DirY, motion.AxisZ: fc.PinsRaw.DirZ, motion.AxisE: fc.PinsRaw.DirE},
	}

	if fc.SampleRate == 0 {
		fc.SampleRate = 1000
	}

	return &fc, nil
}

func (fc *FileConfig) motionConfig() motion.Config {
	cfg := motion.DefaultConfig(fc.SampleRate)
	if mode, ok := shaperModeByName[fc.Shaper.Mode]; ok {
		cfg.Mode = mode
	}
	if fc.Shaper.Zeta != [2]float64{} {
		cfg.Zeta = fc.Shaper.Zeta
	}
	if fc.Shaper.Vtol != [2]float64{} {
		cfg.Vtol = fc.Shaper.Vtol
	}
	if fc.Shaper.BaseFreq != [2]float64{} {
		cfg.BaseFreq = fc.Shaper.BaseFreq
	}
	return cfg
}

func (fc *FileConfig) stepsToMM() motion.StepsToMM {
	var s motion.StepsToMM
	if fc.StepsPerMM.X != 0 {
		s[motion.AxisX] = 1.0 / fc.StepsPerMM.X
	}
	if fc.StepsPerMM.Y != 0 {
		s[motion.AxisY] = 1.0 / fc.StepsPerMM.Y
	}
	if fc.StepsPerMM.Z != 0 {
		s[motion.AxisZ] = 1.0 / fc.StepsPerMM.Z
	}
	if fc.StepsPerMM.E != 0 {
		s[motion.AxisE] = 1.0 / fc.StepsPerMM.E
	}
	return s
}
