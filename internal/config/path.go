// Package config holds configuration helpers shared by the CLI commands.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a leading tilde and environment variables in path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
