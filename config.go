package main

import (
	"flag"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/icexin/gputerrain/internal/chunkwin"
)

var (
	configPath = flag.String("config", "", "yaml config file")
)

type CameraConfig struct {
	// Fov is the vertical field of view in degrees.
	Fov  float32 `yaml:"fov"`
	Near float32 `yaml:"near"`
	Far  float32 `yaml:"far"`
	// Speed is in world units per second; Boost multiplies it while shift
	// is held.
	Speed       float32 `yaml:"speed"`
	Boost       float32 `yaml:"boost"`
	Sensitivity float32 `yaml:"sensitivity"`
	// PitchLimit bounds the pitch in degrees.
	PitchLimit float32    `yaml:"pitch_limit"`
	Start      [3]float32 `yaml:"start"`
}

type Config struct {
	Layout chunkwin.Layout `yaml:"layout"`
	Camera CameraConfig    `yaml:"camera"`
}

func DefaultConfig() Config {
	return Config{
		Layout: chunkwin.DefaultLayout,
		Camera: CameraConfig{
			Fov:         45,
			Near:        0.1,
			Far:         1000,
			Speed:       10,
			Boost:       5,
			Sensitivity: 0.14,
			PitchLimit:  88,
			Start:       [3]float32{0, 40, 0},
		},
	}
}

// LoadConfig reads path over the defaults. An empty path yields the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Layout.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	c := cfg.Camera
	if c.Near <= 0 || c.Far <= c.Near || c.Fov <= 0 || c.Fov >= 180 {
		return cfg, errors.Errorf("config %s: bad camera projection %+v", path, c)
	}
	return cfg, nil
}
