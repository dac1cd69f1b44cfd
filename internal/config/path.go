package config

import (
	"os"
	"path/filepath"
)

const appName = "multipart"

// DefaultDataDir returns where page logs and manifests live when no data
// dir is configured. XDG_DATA_HOME wins, then the platform's per-user
// application data directory, then ~/.multipart.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}

	candidates := []struct{ parent, name string }{
		// macOS
		{filepath.Join(homeDir, "Library", "Application Support"), "Multipart"},
		// Windows
		{filepath.Join(homeDir, "AppData", "Local"), "Multipart"},
		// XDG default
		{filepath.Join(homeDir, ".local", "share"), appName},
	}
	for _, c := range candidates {
		if isDir(c.parent) {
			return filepath.Join(c.parent, c.name)
		}
	}
	return filepath.Join(homeDir, "."+appName)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
