package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Matrix struct {
	Addr uint16 `yaml:"addr"` // e.g. 0x74
	// Brightness is 0..1. Unset (nil) keeps the driver default; an explicit 0
	// blanks the matrix.
	Brightness *float64 `yaml:"brightness,omitempty"`
	// Gamma is the exponent of a power-law gamma table. 0 keeps the built-in curve.
	Gamma float64 `yaml:"gamma,omitempty"`
}

type Gauge struct {
	MinHPa float64 `yaml:"min_hpa"`
	MaxHPa float64 `yaml:"max_hpa"`
}

type Config struct {
	Bus            string        `yaml:"bus"` // "" picks the first I2C bus
	SpeedKHz       int           `yaml:"speed_khz"`
	FPS            int           `yaml:"fps"`
	SampleInterval time.Duration `yaml:"sample_interval"` // e.g. 5s
	Pattern        string        `yaml:"pattern"`         // rainbow | sweep | gauge
	Sim            bool          `yaml:"sim"`

	Matrix Matrix `yaml:"matrix"`
	Gauge  Gauge  `yaml:"gauge"`
}

// Default mirrors the flag defaults of cmd/garden.
func Default() *Config {
	brightness := 0.5
	return &Config{
		SpeedKHz:       400,
		FPS:            30,
		SampleInterval: 5 * time.Second,
		Pattern:        "rainbow",
		Matrix: Matrix{
			Addr:       0x74,
			Brightness: &brightness,
		},
		Gauge: Gauge{MinHPa: 980, MaxHPa: 1040},
	}
}

// Load reads path. Keys missing from the file stay zero so the caller can
// tell them apart from values that were set.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
