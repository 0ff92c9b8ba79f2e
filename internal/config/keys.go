package config

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Setting is one addressable value, e.g. "preferences.theme".
type Setting struct {
	Path  string
	Value string
}

func (c *Config) node() (*yaml.Node, error) {
	var doc yaml.Node
	if err := doc.Encode(c); err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	return &doc, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func (c *Config) lookup(doc *yaml.Node, path string) (*yaml.Node, error) {
	group, key, ok := strings.Cut(path, ".")
	if !ok {
		return nil, fmt.Errorf("setting %q: want group.key", path)
	}
	n := mappingValue(mappingValue(doc, group), key)
	if n == nil || n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("unknown setting %q", path)
	}
	return n, nil
}

// Settings lists every setting in file order. API keys are masked.
func (c *Config) Settings() ([]Setting, error) {
	doc, err := c.node()
	if err != nil {
		return nil, err
	}
	var out []Setting
	for i := 0; i+1 < len(doc.Content); i += 2 {
		group := doc.Content[i].Value
		m := doc.Content[i+1]
		for j := 0; j+1 < len(m.Content); j += 2 {
			path := group + "." + m.Content[j].Value
			out = append(out, Setting{Path: path, Value: display(path, m.Content[j+1].Value)})
		}
	}
	return out, nil
}

func display(path, v string) string {
	if path == "ai_settings.api_key" && v != "" {
		return "********"
	}
	return v
}

// Get returns the value at path as it would be written to the file.
func (c *Config) Get(path string) (string, error) {
	doc, err := c.node()
	if err != nil {
		return "", err
	}
	n, err := c.lookup(doc, path)
	if err != nil {
		return "", err
	}
	return n.Value, nil
}

// Set assigns value at path. The YAML decoder converts it to the field's
// type, so "true" sets a bool and "15" an int; a mismatch is an error and c
// is left unchanged.
func (c *Config) Set(path, value string) error {
	doc, err := c.node()
	if err != nil {
		return err
	}
	n, err := c.lookup(doc, path)
	if err != nil {
		return err
	}
	n.Value = value
	n.Tag = ""
	n.Style = 0

	next := *c
	if err := doc.Decode(&next); err != nil {
		return fmt.Errorf("setting %s: %w", path, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.Home = c.Home
	next.AI.envKey = c.AI.envKey
	*c = next
	if path == "ai_settings.provider" {
		c.applyEnv()
	}
	return nil
}

// Keys lists every settable path, sorted.
func (c *Config) Keys() []string {
	settings, err := c.Settings()
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(settings))
	for _, s := range settings {
		keys = append(keys, s.Path)
	}
	sort.Strings(keys)
	return keys
}
