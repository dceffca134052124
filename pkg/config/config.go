// Package config provides configuration loading and management for volview.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"volview/pkg/logging"
	"volview/pkg/view"
	"volview/pkg/volumeio"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Window parameters for the desktop host
	Window struct {
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
		Title  string `yaml:"title"`
	} `yaml:"window"`

	// Windowing holds the contrast defaults applied the first time a volume
	// is loaded into an empty slab
	Windowing struct {
		ImageWidth float64 `yaml:"imageWidth"`
		ImageLevel float64 `yaml:"imageLevel"`
		MaskWidth  float64 `yaml:"maskWidth"`
		MaskLevel  float64 `yaml:"maskLevel"`

		// DragSensitivity is the windowing change per pixel of right-button drag
		DragSensitivity float64 `yaml:"dragSensitivity"`
	} `yaml:"windowing"`

	Navigation struct {
		// ZoomStep divides the wheel delta: scale = 1 + dy/ZoomStep
		ZoomStep float64 `yaml:"zoomStep"`
	} `yaml:"navigation"`

	// Keys binds actions to key names as reported by the host
	Keys struct {
		CycleAxis  string `yaml:"cycleAxis"`
		ResetView  string `yaml:"resetView"`
		Screenshot string `yaml:"screenshot"`
	} `yaml:"keys"`

	Loader struct {
		// MaskPatterns are file name globs identifying segmentation volumes
		MaskPatterns []string `yaml:"maskPatterns"`

		// MaskFromDatatype treats floating-point volumes as masks
		MaskFromDatatype bool `yaml:"maskFromDatatype"`
	} `yaml:"loader"`

	Overlay struct {
		// Opacity of the mask overlay in [0,1]
		Opacity float64 `yaml:"opacity"`
	} `yaml:"overlay"`

	Log logging.LogConfig `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Window.Width = 800
	cfg.Window.Height = 600
	cfg.Window.Title = "volview"

	cfg.Windowing.ImageWidth = 600
	cfg.Windowing.ImageLevel = 200
	cfg.Windowing.MaskWidth = 1.0
	cfg.Windowing.MaskLevel = 0.5
	cfg.Windowing.DragSensitivity = 2.0

	cfg.Navigation.ZoomStep = 10

	cfg.Keys.CycleAxis = "X"
	cfg.Keys.ResetView = "R"
	cfg.Keys.Screenshot = "P"

	cfg.Loader.MaskPatterns = []string{"*seg*", "*mask*", "*label*"}
	cfg.Loader.MaskFromDatatype = false

	cfg.Overlay.Opacity = 0.4

	cfg.Log.Level = "info"
	cfg.Log.MaxSize = 10
	cfg.Log.MaxAge = 7

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate rejects values the viewer cannot work with
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Navigation.ZoomStep <= 0 {
		return fmt.Errorf("zoomStep must be positive, got %g", c.Navigation.ZoomStep)
	}
	if c.Windowing.ImageWidth <= 0 || c.Windowing.MaskWidth <= 0 {
		return fmt.Errorf("window widths must be positive")
	}
	if c.Overlay.Opacity < 0 || c.Overlay.Opacity > 1 {
		return fmt.Errorf("overlay opacity must be in [0,1], got %g", c.Overlay.Opacity)
	}
	for _, p := range c.Loader.MaskPatterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("bad mask pattern %q: %w", p, err)
		}
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// ViewParams converts the interaction settings into view parameters
func (c *Config) ViewParams() view.Params {
	return view.Params{
		ViewportWidth:   c.Window.Width,
		ViewportHeight:  c.Window.Height,
		ImageWindow:     view.Window{Width: float32(c.Windowing.ImageWidth), Level: float32(c.Windowing.ImageLevel)},
		MaskWindow:      view.Window{Width: float32(c.Windowing.MaskWidth), Level: float32(c.Windowing.MaskLevel)},
		DragSensitivity: float32(c.Windowing.DragSensitivity),
		ZoomStep:        float32(c.Navigation.ZoomStep),
		CycleAxisKey:    view.Key(c.Keys.CycleAxis),
		ResetViewKey:    view.Key(c.Keys.ResetView),
	}
}

// LoaderOptions builds the volume decoder options, including the mask
// classification rule
func (c *Config) LoaderOptions() volumeio.Options {
	classify := volumeio.PatternClassifier(c.Loader.MaskPatterns)
	if c.Loader.MaskFromDatatype {
		classify = volumeio.AnyClassifier(classify, volumeio.DatatypeClassifier())
	}
	return volumeio.Options{Classify: classify}
}
