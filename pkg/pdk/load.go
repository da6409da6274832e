package pdk

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// layerEntry mirrors one YAML mapping entry. Pointer fields
// distinguish missing keys from zero values.
type layerEntry struct {
	Z      *float64  `yaml:"z"`
	Height *float64  `yaml:"height"`
	Index  *int      `yaml:"index"`
	Type   *int      `yaml:"type"`
	Color  []float64 `yaml:"color"`
}

// Parse decodes a layer stack from YAML. The document is a mapping
// from layer name to layer fields; document order defines stack
// order, so decoding goes through yaml.Node rather than a plain map.
func Parse(data []byte) (Stack, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrConfig)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected a mapping of layer names", ErrConfig)
	}

	stack := make(Stack, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value

		var entry layerEntry
		if err := root.Content[i+1].Decode(&entry); err != nil {
			return nil, fmt.Errorf("%w: layer %q: %v", ErrConfig, name, err)
		}

		spec, err := entry.toSpec(name)
		if err != nil {
			return nil, err
		}
		stack = append(stack, spec)
	}

	if err := stack.validate(); err != nil {
		return nil, err
	}
	return stack, nil
}

// toSpec validates one entry into a LayerSpec.
func (e layerEntry) toSpec(name string) (LayerSpec, error) {
	required := []struct {
		field   string
		present bool
	}{
		{"z", e.Z != nil},
		{"height", e.Height != nil},
		{"index", e.Index != nil},
		{"type", e.Type != nil},
		{"color", e.Color != nil},
	}
	for _, r := range required {
		if !r.present {
			return LayerSpec{}, fmt.Errorf("%w: layer %q missing field %q", ErrConfig, name, r.field)
		}
	}

	if *e.Index < 0 || *e.Index > 0xFFFF {
		return LayerSpec{}, fmt.Errorf("%w: layer %q: index %d out of range", ErrConfig, name, *e.Index)
	}
	if *e.Type < 0 || *e.Type > 0xFFFF {
		return LayerSpec{}, fmt.Errorf("%w: layer %q: datatype %d out of range", ErrConfig, name, *e.Type)
	}
	if *e.Height <= 0 {
		return LayerSpec{}, fmt.Errorf("%w: layer %q: height must be positive, got %g", ErrConfig, name, *e.Height)
	}
	if len(e.Color) != 4 {
		return LayerSpec{}, fmt.Errorf("%w: layer %q: color must have 4 components, got %d", ErrConfig, name, len(e.Color))
	}

	spec := LayerSpec{
		Name:     name,
		Index:    uint16(*e.Index),
		Datatype: uint16(*e.Type),
		Z:        *e.Z,
		Height:   *e.Height,
	}
	for i, c := range e.Color {
		if c < 0 || c > 1 {
			return LayerSpec{}, fmt.Errorf("%w: layer %q: color component %d = %g outside [0,1]", ErrConfig, name, i, c)
		}
		spec.Color[i] = c
	}
	return spec, nil
}

// LoadFile loads a layer stack from a YAML file on disk.
func LoadFile(path string) (Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layer stack file: %w", err)
	}
	return Parse(data)
}

// ListConfigs returns the PDK names (file stems) available in a
// config directory, sorted.
func ListConfigs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading config dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, strings.TrimSuffix(e.Name(), ext))
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadNamed loads the layer stack for a named PDK from a config
// directory. An unknown name produces an error listing the available
// options.
func LoadNamed(dir, name string) (Stack, error) {
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	available, err := ListConfigs(dir)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: unknown PDK %q, available: %s",
		ErrConfig, name, strings.Join(available, ", "))
}
