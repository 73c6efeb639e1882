package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point: load defaults, merge a YAML file over them,
// expand environment references, then validate.
//
// Steps performed:
//  1. Load calm.yaml from configDir (missing file is not an error; an empty
//     Config is merged onto defaults exactly as a present-but-empty file
//     would be)
//  2. Expand ${VAR}/$VAR environment references in the raw YAML text
//  3. Parse YAML into a Config
//  4. Merge the built-in defaults with the loaded values (loaded overrides)
//  5. Apply CALM_-prefixed environment variable overrides
//  6. Validate
//  7. Return the Config ready for use
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("loading configuration")

	loaded, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	merged, err := mergeWithDefaults(loaded)
	if err != nil {
		return nil, err
	}
	merged.configDir = configDir

	applyEnvOverrides(merged)

	if err := NewValidator(merged).ValidateAll(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration loaded",
		"calm_dir", merged.CalmDir,
		"code_model", merged.CodeModel,
		"semantic_model", merged.SemanticModel)

	return merged, nil
}

// load reads and parses calm.yaml. A missing file yields an empty Config
// (the caller merges it onto defaults), since a fresh install may not have
// one yet.
func load(configDir string) (*Config, error) {
	path := filepath.Join(configDir, "calm.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, NewLoadError(path, err)
	}

	data = ExpandEnv(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	return &cfg, nil
}
