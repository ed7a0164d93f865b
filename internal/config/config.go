package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultDataRoot       = "data"
	defaultPDFDir         = "data/pdf"
	defaultYTolerance     = 3.0
	defaultXTolerance     = 3.0
	defaultDPI            = 300.0
	defaultBlankThreshold = 10.0
)

type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Layout  LayoutConfig  `yaml:"layout"`
	Render  RenderConfig  `yaml:"render"`
	Exports ExportsConfig `yaml:"exports"`
}

type PathsConfig struct {
	DataRoot string `yaml:"data_root"`
	PDFDir   string `yaml:"pdf_dir"`
}

// LayoutConfig controls how glyphs become words and words become lines.
type LayoutConfig struct {
	YTolerance float64 `yaml:"y_tolerance"`
	XTolerance float64 `yaml:"x_tolerance"`
}

type RenderConfig struct {
	DPI            float64 `yaml:"dpi"`
	BlankThreshold float64 `yaml:"blank_threshold"`
	Disabled       bool    `yaml:"disabled"`
}

type ExportsConfig struct {
	HTML      bool `yaml:"html"`
	AnswerKey bool `yaml:"answer_key"`
}

// Default returns a config with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// LoadConfig reads a YAML config file. A missing file is not an error, the
// defaults are returned instead.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults replaces zero or negative values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Paths.DataRoot == "" {
		c.Paths.DataRoot = defaultDataRoot
	}
	if c.Paths.PDFDir == "" {
		c.Paths.PDFDir = defaultPDFDir
	}
	if c.Layout.YTolerance <= 0 {
		c.Layout.YTolerance = defaultYTolerance
	}
	if c.Layout.XTolerance <= 0 {
		c.Layout.XTolerance = defaultXTolerance
	}
	if c.Render.DPI <= 0 {
		c.Render.DPI = defaultDPI
	}
	if c.Render.BlankThreshold <= 0 {
		c.Render.BlankThreshold = defaultBlankThreshold
	}
}
