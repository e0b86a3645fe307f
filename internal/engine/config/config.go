// Package config loads and validates the engine settings document.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"voxelgrid/internal/engine/gen"
)

type Config struct {
	ViewDistance   int             `yaml:"view_distance" json:"view_distance"`
	Generator      GeneratorConfig `yaml:"generator" json:"generator"`
	UseGPUCompute  bool            `yaml:"use_gpu_compute" json:"use_gpu_compute"`
	AddBorderWalls bool            `yaml:"add_border_walls" json:"add_border_walls"`
	CullChunks     bool            `yaml:"cull_chunks" json:"cull_chunks"`
	Workers        int             `yaml:"workers" json:"workers"`
	Seed           int64           `yaml:"seed" json:"seed"`
}

type GeneratorConfig struct {
	Variant string     `yaml:"variant" json:"variant"`
	Offset  [3]float64 `yaml:"offset" json:"offset"`
	Scale   [3]float64 `yaml:"scale" json:"scale"`
	Offset2 float64    `yaml:"offset2" json:"offset2"`
	Scale2  float64    `yaml:"scale2" json:"scale2"`
}

// Load reads a YAML settings file. An empty path yields defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("engine.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("engine.yaml: %w", err)
	}
	return cfg, nil
}

func Default() Config {
	return Config{
		ViewDistance: 4,
		Generator: GeneratorConfig{
			Variant: "flat",
			Scale:   [3]float64{1, 1, 1},
			Offset2: 1,
			Scale2:  10,
		},
		CullChunks: true,
		Seed:       1337,
	}
}

// Normalize fills omitted fields that have a single sensible value.
func (c *Config) Normalize() {
	if c.Generator.Variant == "" {
		c.Generator.Variant = "flat"
	}
	if c.Generator.Scale == ([3]float64{}) {
		c.Generator.Scale = [3]float64{1, 1, 1}
	}
	if c.Generator.Scale2 == 0 {
		c.Generator.Scale2 = 10
	}
}

// Validate enforces the configuration contract: structural checks against
// the embedded JSON schema, then the semantic rules the schema cannot
// express.
func (c Config) Validate() error {
	if err := c.validateSchema(); err != nil {
		return err
	}
	if c.ViewDistance < 1 {
		return fmt.Errorf("view_distance %d: must be >= 1", c.ViewDistance)
	}
	v, err := gen.ParseVariant(c.Generator.Variant)
	if err != nil {
		return err
	}
	if !v.CPUSupported() && !c.UseGPUCompute {
		return fmt.Errorf("generator %s requires use_gpu_compute", v)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d: must be >= 0", c.Workers)
	}
	return nil
}

// GenParams maps the document onto generator parameters.
func (c Config) GenParams() (gen.Params, error) {
	v, err := gen.ParseVariant(c.Generator.Variant)
	if err != nil {
		return gen.Params{}, err
	}
	return gen.Params{
		Variant: v,
		Offset:  c.Generator.Offset,
		Scale:   c.Generator.Scale,
		Offset2: c.Generator.Offset2,
		Scale2:  c.Generator.Scale2,
		Seed:    c.Seed,
	}, nil
}
