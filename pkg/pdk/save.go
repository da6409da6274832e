package pdk

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Marshal serializes the stack back to YAML in stack order, so that
// Parse(Marshal(st)) reproduces st exactly.
func (st Stack) Marshal() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	for _, s := range st {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: s.Name}

		entry := &yaml.Node{Kind: yaml.MappingNode}
		addScalar(entry, "z", formatFloat(s.Z))
		addScalar(entry, "height", formatFloat(s.Height))
		addScalar(entry, "index", strconv.Itoa(int(s.Index)))
		addScalar(entry, "type", strconv.Itoa(int(s.Datatype)))

		color := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, c := range s.Color {
			color.Content = append(color.Content, &yaml.Node{
				Kind:  yaml.ScalarNode,
				Value: formatFloat(c),
			})
		}
		entry.Content = append(entry.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "color"}, color)

		root.Content = append(root.Content, key, entry)
	}

	data, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("marshaling layer stack: %w", err)
	}
	return data, nil
}

// SaveTo writes the stack as YAML to the given path.
func (st Stack) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := st.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func addScalar(m *yaml.Node, key, value string) {
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value},
	)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
