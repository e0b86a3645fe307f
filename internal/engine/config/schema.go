package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "view_distance": {"type": "integer", "minimum": 1},
    "generator": {
      "type": "object",
      "properties": {
        "variant": {
          "type": "string",
          "enum": ["flat", "plane", "simplex2d", "perlin2d", "simplex3d", "perlin3d", "custom_terrain"]
        },
        "offset": {"type": "array", "items": {"type": "number"}, "minItems": 3, "maxItems": 3},
        "scale": {"type": "array", "items": {"type": "number"}, "minItems": 3, "maxItems": 3},
        "offset2": {"type": "number"},
        "scale2": {"type": "number"}
      },
      "required": ["variant"]
    },
    "use_gpu_compute": {"type": "boolean"},
    "add_border_walls": {"type": "boolean"},
    "cull_chunks": {"type": "boolean"},
    "workers": {"type": "integer", "minimum": 0},
    "seed": {"type": "integer"}
  },
  "required": ["view_distance", "generator"]
}`

var compiledSchema = mustCompile()

func mustCompile() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("engine.schema.json", strings.NewReader(configSchema)); err != nil {
		panic(err)
	}
	return c.MustCompile("engine.schema.json")
}

func (c Config) validateSchema() error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	return nil
}
