package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bootprobe/internal/structures"
)

// LoadConfig loads a YAML configuration file into the given structure.
func LoadConfig(path string, config interface{}) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	return nil
}

// LoadDetectConfig loads the detection configuration. An empty path, or
// the default path not existing, yields the built-in defaults; when
// required is set (the operator named the file explicitly) a missing or
// malformed file is an error instead.
func LoadDetectConfig(path string, required bool) (structures.DetectConfig, error) {
	var cfg structures.DetectConfig
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := LoadConfig(path, &cfg); err != nil {
				return cfg, err
			}
		} else if required {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %s", path)
			}
			return cfg, fmt.Errorf("error reading config file: %w", err)
		}
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
