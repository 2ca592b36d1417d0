package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, env-interpolates, parses and validates a YAML load test file
// at path.
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(data)
}

// Parse env-interpolates, parses, and validates a YAML document already in
// memory. Exported separately from Load so callers (and tests) can feed
// in-memory documents without touching the filesystem.
func Parse(data []byte) (*File, error) {
	expanded, err := interpolateEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("error interpolating config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal([]byte(expanded), &f); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if errs := Validate(&f); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, fmt.Errorf("invalid config: %w", errors.Join(joined...))
	}

	return &f, nil
}
