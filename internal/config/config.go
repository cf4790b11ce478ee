package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gifterm/internal/ascii"
	"github.com/san-kum/gifterm/internal/reel"
)

const (
	DefaultScale   = 0.25
	DefaultWorkers = 1
	DefaultDataDir = "."
	DefaultStretch = 1
	DefaultColour  = "closest"
)

type Config struct {
	KeyFrames int           `yaml:"keyframes"`
	Scale     float64       `yaml:"scale"`
	Interval  time.Duration `yaml:"interval"`
	Workers   int           `yaml:"workers"`
	Renderer  string        `yaml:"renderer"`
	DataDir   string        `yaml:"data_dir"`
	// Stretch widens the rendered frames horizontally.
	Stretch int `yaml:"stretch"`
	// Colour selects the palette of captured frames: closest or true.
	Colour string `yaml:"colour"`
}

func DefaultConfig() *Config {
	return &Config{
		KeyFrames: reel.DefaultKeyFrames,
		Scale:     DefaultScale,
		Interval:  reel.DefaultInterval,
		Workers:   DefaultWorkers,
		Renderer:  "ascii",
		DataDir:   DefaultDataDir,
		Stretch:   DefaultStretch,
		Colour:    DefaultColour,
	}
}

// Load reads a config file over base, or over the defaults when base is
// nil. Fields missing from the file keep the base value.
func Load(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if base != nil {
		c := *base
		cfg = &c
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first out of range field.
func (c *Config) Validate() error {
	switch {
	case c.KeyFrames <= 0:
		return fmt.Errorf("%w: keyframes must be positive, got %d", reel.ErrInvalidArgument, c.KeyFrames)
	case !(c.Scale > 0):
		return fmt.Errorf("%w: scale must be positive, got %v", reel.ErrInvalidArgument, c.Scale)
	case c.Interval <= 0:
		return fmt.Errorf("%w: interval must be positive, got %v", reel.ErrInvalidArgument, c.Interval)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", reel.ErrInvalidArgument, c.Workers)
	case c.Stretch <= 0:
		return fmt.Errorf("%w: stretch must be positive, got %d", reel.ErrInvalidArgument, c.Stretch)
	}
	if _, err := c.ColourMode(); err != nil {
		return fmt.Errorf("%w: %w", reel.ErrInvalidArgument, err)
	}
	return nil
}

// ColourMode parses the Colour field.
func (c *Config) ColourMode() (ascii.ColorMode, error) {
	return ascii.ParseColorMode(c.Colour)
}

// RendererArgs returns the arguments passed to the renderer ahead of the
// per-frame ones in both modes.
func (c *Config) RendererArgs() []string {
	if c.Stretch > 1 {
		return []string{"--stretch", strconv.Itoa(c.Stretch)}
	}
	return nil
}

// StreamFlags returns the colour arguments of captured renders. Persisted
// frames are plain text and never get them.
func (c *Config) StreamFlags() []string {
	if mode, err := c.ColourMode(); err == nil && mode == ascii.TrueColor {
		return []string{"--true-colour"}
	}
	return nil
}
