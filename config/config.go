// Package config loads hierarchy declarations from YAML documents, so
// the shape of a machine can live in configuration while the behavior
// stays in code.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/canopystate/canopy"
)

// StateConfig describes a single declared state. A state with an empty
// Parent is a root of the forest.
type StateConfig struct {
	Parent string `yaml:"parent,omitempty"`
}

// HierarchyConfig is the YAML representation of a state hierarchy.
//
//	name: flashlight
//	states:
//	  device: {}
//	  on:
//	    parent: device
type HierarchyConfig struct {
	Name   string                  `yaml:"name"`
	States map[string]*StateConfig `yaml:"states"`
}

// Parse decodes a YAML document into a HierarchyConfig and validates it.
func Parse(data []byte) (*HierarchyConfig, error) {
	var cfg HierarchyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing hierarchy config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseFile reads and parses a YAML hierarchy config from disk.
func ParseFile(path string) (*HierarchyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hierarchy config: %w", err)
	}
	return Parse(data)
}

// Validate checks that every parent reference points at a declared state
// and that no parent chain loops back on itself.
func (c *HierarchyConfig) Validate() error {
	if len(c.States) == 0 {
		return fmt.Errorf("hierarchy config %q declares no states", c.Name)
	}
	for name, state := range c.States {
		if state == nil || state.Parent == "" {
			continue
		}
		if _, ok := c.States[state.Parent]; !ok {
			return fmt.Errorf("state %q references undeclared parent %q", name, state.Parent)
		}
	}
	for name := range c.States {
		if _, err := c.depth(name); err != nil {
			return err
		}
	}
	return nil
}

// depth returns the number of ancestors above name, erroring on cycles.
func (c *HierarchyConfig) depth(name string) (int, error) {
	steps := 0
	current := name
	for {
		state := c.States[current]
		if state == nil || state.Parent == "" {
			return steps, nil
		}
		steps++
		if steps > len(c.States) {
			return 0, fmt.Errorf("state %q is part of a parent cycle", name)
		}
		current = state.Parent
	}
}

// Build declares the configured hierarchy, binding each state to the
// factory registered under its name. States without a registered factory
// get a default no-op state. Parents are declared before their children.
func (c *HierarchyConfig) Build(factories map[string]canopy.Factory) (*canopy.Hierarchy, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	type entry struct {
		name  string
		depth int
	}
	entries := make([]entry, 0, len(c.States))
	for name := range c.States {
		d, err := c.depth(name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{name: name, depth: d})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].depth != entries[j].depth {
			return entries[i].depth < entries[j].depth
		}
		return entries[i].name < entries[j].name
	})

	h := canopy.NewHierarchy()
	for _, e := range entries {
		factory := factories[e.name]
		state := c.States[e.name]
		if state == nil || state.Parent == "" {
			h.Root(canopy.StateType(e.name), factory)
		} else {
			h.Child(canopy.StateType(e.name), canopy.StateType(state.Parent), factory)
		}
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}
