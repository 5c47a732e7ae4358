// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package presets provides criteria templates per decision type.
//
// The templates are embedded from presets.yaml and validated on load.
// Creating a decision with a preset name seeds its criteria from the
// matching template.
package presets

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/choseby/models"
)

//go:embed presets.yaml
var embedded []byte

type Criterion struct {
	Name        string  `yaml:"name" json:"name" validate:"required,max=100"`
	Description string  `yaml:"description" json:"description"`
	Weight      float64 `yaml:"weight" json:"weight" validate:"gt=0"`
	Category    string  `yaml:"category" json:"category" validate:"omitempty,oneof=clinical financial operational compliance technical"`
}

type Preset struct {
	Name     string      `yaml:"name" json:"name" validate:"required"`
	Title    string      `yaml:"title" json:"title" validate:"required"`
	Criteria []Criterion `yaml:"criteria" json:"criteria" validate:"required,min=1,dive"`
}

type file struct {
	Presets []Preset `yaml:"presets" validate:"required,min=1,dive"`
}

// Catalog is an immutable set of presets keyed by name.
type Catalog struct {
	byName map[string]Preset
	names  []string
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog built from the embedded presets.yaml.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(embedded)
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for callers that cannot recover from a broken
// embedded file.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes and validates a presets document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse presets yaml: %w", err)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(f); err != nil {
		return nil, fmt.Errorf("invalid presets: %w", err)
	}

	c := &Catalog{byName: make(map[string]Preset, len(f.Presets))}
	for _, p := range f.Presets {
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate preset %q", p.Name)
		}
		c.byName[p.Name] = p
		c.names = append(c.names, p.Name)
	}
	sort.Strings(c.names)

	return c, nil
}

// Get returns the named preset.
func (c *Catalog) Get(name string) (Preset, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// All returns every preset sorted by name.
func (c *Catalog) All() []Preset {
	out := make([]Preset, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.byName[name])
	}
	return out
}

// ToCriteria converts a preset into criteria for decisionID. IDs are left
// empty for the caller to assign.
func (p Preset) ToCriteria(decisionID string) []models.Criterion {
	out := make([]models.Criterion, len(p.Criteria))
	for i, c := range p.Criteria {
		out[i] = models.Criterion{
			DecisionID:  decisionID,
			Name:        c.Name,
			Description: c.Description,
			Weight:      c.Weight,
			Category:    c.Category,
		}
	}
	return out
}
