package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ApplyFile overlays the keys present in a YAML file onto c. Keys absent
// from the file leave the current values untouched.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}
