package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome resolves a leading "~" in a configured path to the current
// user's home directory, leaving absolute and relative paths untouched.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// ResolvedCalmDir returns CalmDir with any leading "~" expanded.
func (c *Config) ResolvedCalmDir() (string, error) {
	return ExpandHome(c.CalmDir)
}

// ResolvedVectorStoreURL returns VectorStoreURL with any leading "~"
// expanded.
func (c *Config) ResolvedVectorStoreURL() (string, error) {
	return ExpandHome(c.VectorStoreURL)
}
