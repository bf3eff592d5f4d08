// Package config loads the calibration tool's YAML settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ricebraille/internal/calibration"
	"ricebraille/internal/page"
	"ricebraille/internal/tracking"
	"ricebraille/pkg/geometry"
)

// Config is the top-level configuration.
type Config struct {
	Layout     string `yaml:"layout"`      // registered layout name
	LayoutFile string `yaml:"layout_file"` // JSON layout, overrides Layout
	PageFile   string `yaml:"page_file"`
	PageIndex  int    `yaml:"page_index"` // page within a multi-page .brf

	// Desired is the physical size points map into; zero uses the layout.
	Desired geometry.Size `yaml:"desired"`

	Video    calibration.SearchWindow `yaml:"video"`
	Detect   calibration.DetectParams `yaml:"detect"`
	Manual   ManualConfig             `yaml:"manual"`
	Tracking tracking.Options         `yaml:"tracking"`

	DebugDir string `yaml:"debug_dir"`
	Debug    bool   `yaml:"debug"`
}

// ManualConfig controls the corner picker fallback.
type ManualConfig struct {
	Enabled bool `yaml:"enabled"`
	// Preview bounds for the picker window, in screen pixels.
	MaxWidth  int `yaml:"max_width"`
	MaxHeight int `yaml:"max_height"`
	// Corners, when given, replace interactive clicks.
	Corners []geometry.Point2D `yaml:"corners"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Layout:   page.StandardName,
		Video:    calibration.DefaultSearchWindow(),
		Detect:   calibration.DefaultDetectParams(),
		Manual:   ManualConfig{Enabled: true, MaxWidth: 1280, MaxHeight: 800},
		Tracking: tracking.DefaultOptions(),
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Layout == "" && c.LayoutFile == "" {
		return fmt.Errorf("layout or layout_file is required")
	}
	if c.PageIndex < 0 {
		return fmt.Errorf("page_index must not be negative")
	}
	if c.Desired != (geometry.Size{}) && !c.Desired.Positive() {
		return fmt.Errorf("desired dimensions must be positive, got %vx%v", c.Desired.Width, c.Desired.Height)
	}
	if err := c.Video.Validate(); err != nil {
		return fmt.Errorf("video: %w", err)
	}
	if err := c.Detect.Validate(); err != nil {
		return fmt.Errorf("detect: %w", err)
	}
	if n := len(c.Manual.Corners); n != 0 && n != 4 {
		return fmt.Errorf("manual: corners needs exactly 4 points, got %d", n)
	}
	if c.Manual.Enabled && (c.Manual.MaxWidth <= 0 || c.Manual.MaxHeight <= 0) {
		return fmt.Errorf("manual: preview size must be positive")
	}
	if err := c.Tracking.Validate(); err != nil {
		return fmt.Errorf("tracking: %w", err)
	}
	return nil
}

// ResolveLayout returns the layout from LayoutFile or the registry.
func (c *Config) ResolveLayout() (page.Layout, error) {
	if c.LayoutFile != "" {
		return page.LoadLayout(c.LayoutFile)
	}
	l, ok := page.GetLayout(c.Layout)
	if !ok {
		return page.Layout{}, fmt.Errorf("unknown layout %q (have %v)", c.Layout, page.ListLayouts())
	}
	return l, nil
}

// DesiredSize returns Desired, or the layout's page size when unset.
func (c *Config) DesiredSize(l page.Layout) geometry.Size {
	if c.Desired.Positive() {
		return c.Desired
	}
	return l.Dimensions()
}
