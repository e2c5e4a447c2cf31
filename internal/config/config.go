// Package config handles configuration loading and shared settings.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lbartoletti/jupytergis/internal/reproject"
)

// CRSDef registers an extra proj4 definition for a CRS code.
type CRSDef struct {
	Code  string `yaml:"code" json:"code"`
	Proj4 string `yaml:"proj4" json:"proj4"`
}

// Viewer holds 3D view defaults.
type Viewer struct {
	Width      int     `yaml:"width,omitempty" json:"width,omitempty"`
	Height     int     `yaml:"height,omitempty" json:"height,omitempty"`
	Background string  `yaml:"background,omitempty" json:"background,omitempty"`
	FOV        float64 `yaml:"fov,omitempty" json:"fov,omitempty"`
}

// Config represents the root configuration file structure.
type Config struct {
	DisplayCRS string   `yaml:"display_crs,omitempty" json:"display_crs,omitempty"`
	CRS        []CRSDef `yaml:"crs,omitempty" json:"crs,omitempty"`
	Viewer     Viewer   `yaml:"viewer,omitempty" json:"viewer,omitempty"`
	OutputDir  string   `yaml:"output_dir,omitempty" json:"output_dir,omitempty"`
}

// Load reads and parses the YAML configuration file from the specified
// path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Apply registers the configured CRS definitions on a reprojector.
func (c *Config) Apply(r *reproject.Reprojector) {
	for _, def := range c.CRS {
		if def.Code != "" && def.Proj4 != "" {
			r.Register(def.Code, def.Proj4)
		}
	}
}
