package config

import (
	"os"
	"path/filepath"
)

// ConfigFileNames are tried, in order, when no config path is given.
var ConfigFileNames = []string{"bundler.yaml", "bundler.yml", "bundler.json", "bundler.toml"}

// FindConfigFile returns the first ConfigFileNames entry present in dir.
// The boolean is false when none exists.
func FindConfigFile(dir string) (string, bool) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path, true
		}
	}
	return "", false
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 {
		return path, nil
	}

	if path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	// Handle ~/path/to/something
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// ~username is not supported
	return path, nil
}
