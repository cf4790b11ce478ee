package config

import (
	"slices"
	"time"

	"github.com/san-kum/gifterm/internal/reel"
)

var Presets = map[string]*Config{
	"thumbnail": {
		KeyFrames: 10, Scale: 0.1, Interval: reel.DefaultInterval,
	},
	"default": {
		KeyFrames: reel.DefaultKeyFrames, Scale: DefaultScale, Interval: reel.DefaultInterval,
	},
	"detailed": {
		KeyFrames: 16, Scale: 0.5, Interval: reel.DefaultInterval,
	},
	"smooth": {
		KeyFrames: 24, Scale: 0.25, Interval: 100 * time.Millisecond,
	},
}

// GetPreset returns the defaults overlaid with the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.KeyFrames = p.KeyFrames
	cfg.Scale = p.Scale
	cfg.Interval = p.Interval
	return cfg
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
