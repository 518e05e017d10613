// Package catalog holds the engine catalog: the set of selectable generation
// engines together with their credit cost and output dimensions. The catalog
// ships with an embedded default and can be overridden with a YAML file.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed engines.yaml
var defaultCatalog []byte

// Size is an output resolution in pixels.
type Size struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Engine describes one selectable generation engine.
type Engine struct {
	ID           string          `yaml:"id" json:"id"`
	Name         string          `yaml:"name" json:"name"`
	Cost         int             `yaml:"cost" json:"cost"`
	Quality      string          `yaml:"quality" json:"quality"`
	AspectRatios map[string]Size `yaml:"aspect_ratios" json:"aspect_ratios"`
}

// SizeFor resolves the pixel dimensions for an aspect ratio, falling back to
// 1:1 when the ratio is unknown or unset.
func (e Engine) SizeFor(aspectRatio string) Size {
	if s, ok := e.AspectRatios[aspectRatio]; ok {
		return s
	}
	if s, ok := e.AspectRatios["1:1"]; ok {
		return s
	}
	return Size{Width: 1024, Height: 1024}
}

type catalogFile struct {
	Default string   `yaml:"default"`
	Engines []Engine `yaml:"engines"`
}

// Catalog is an immutable, validated engine catalog.
type Catalog struct {
	engines   []Engine
	index     map[string]Engine
	defaultID string
}

// Load reads the catalog from path, or from the embedded default when path
// is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", path, err)
		}
		data = raw
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if len(file.Engines) == 0 {
		return nil, fmt.Errorf("catalog: at least one engine is required")
	}

	index := make(map[string]Engine, len(file.Engines))
	for _, e := range file.Engines {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog: engine id is required")
		}
		if e.Cost < 0 {
			return nil, fmt.Errorf("catalog: engine %s: cost must not be negative", e.ID)
		}
		if _, dup := index[e.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate engine id %s", e.ID)
		}
		index[e.ID] = e
	}

	defaultID := file.Default
	if defaultID == "" {
		defaultID = file.Engines[0].ID
	}
	if _, ok := index[defaultID]; !ok {
		return nil, fmt.Errorf("catalog: default engine %s is not defined", defaultID)
	}

	return &Catalog{engines: file.Engines, index: index, defaultID: defaultID}, nil
}

// Find returns the engine with the given id.
func (c *Catalog) Find(id string) (Engine, bool) {
	e, ok := c.index[id]
	return e, ok
}

// Default returns the catalog's default engine.
func (c *Catalog) Default() Engine {
	return c.index[c.defaultID]
}

// Engines returns all engines in file order.
func (c *Catalog) Engines() []Engine {
	out := make([]Engine, len(c.engines))
	copy(out, c.engines)
	return out
}
