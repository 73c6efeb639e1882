package config

import (
	"fmt"

	"dario.cat/mergo"
)

// mergeWithDefaults merges a loaded (possibly partial) Config onto the
// built-in defaults: any field left zero-valued in loaded keeps the
// default, any field set in loaded overrides it, via
// mergo.Merge(dst, src, mergo.WithOverride).
func mergeWithDefaults(loaded *Config) (*Config, error) {
	merged := DefaultConfig()
	if err := mergo.Merge(merged, loaded, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge configuration: %w", err)
	}
	return merged, nil
}
