// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load loads configuration from a YAML file into target. Values in target
// act as defaults for keys the file omits. ${VAR} and ${VAR:-fallback}
// are expanded from the environment before parsing.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	return Parse(data, target)
}

// Parse expands and decodes YAML data into target, then validates it.
func Parse[T any](data []byte, target *T) error {
	expandedData := os.Expand(string(data), lookupEnv)

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

// lookupEnv resolves NAME or NAME:-fallback.
func lookupEnv(key string) string {
	name, fallback, hasFallback := strings.Cut(key, ":-")
	if v, ok := os.LookupEnv(name); ok && (v != "" || !hasFallback) {
		return v
	}
	return fallback
}

// LoadWithDefaults loads configuration with fallback to a default file.
func LoadWithDefaults[T any](filename, defaultFile string, target *T) error {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		if defaultFile != "" {
			return Load(defaultFile, target)
		}
		return fmt.Errorf("config file not found: %s", filename)
	}
	return Load(filename, target)
}
