// Package config reads YAML configuration files into json-tagged structs.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ghodss/yaml"
)

// Load reads the YAML file at path over def. Fields missing from the file keep their value from def.
func Load[T any](path string, def T) (T, error) {
	yamlB, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("failed to read config file: %w", err)
	}

	jsonB, err := yaml.YAMLToJSON(yamlB)
	if err != nil {
		return def, fmt.Errorf("failed to convert yaml to json: %w", err)
	}
	// "null" for an empty document leaves def untouched
	err = json.Unmarshal(jsonB, &def)
	if err != nil {
		return def, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return def, nil
}
