package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDataDir(t *testing.T) {
	home := t.TempDir()
	tests := []struct {
		name     string
		setupEnv func(t *testing.T)
		expected string
	}{
		{
			name: "XDG_DATA_HOME override",
			setupEnv: func(t *testing.T) {
				t.Setenv("XDG_DATA_HOME", "/custom/data")
			},
			expected: "/custom/data/multipart",
		},
		{
			name: "bare home falls back to dotdir",
			setupEnv: func(t *testing.T) {
				t.Setenv("XDG_DATA_HOME", "")
				t.Setenv("HOME", home)
			},
			expected: filepath.Join(home, ".multipart"),
		},
		{
			name: "xdg default under home",
			setupEnv: func(t *testing.T) {
				h := t.TempDir()
				if err := os.MkdirAll(filepath.Join(h, ".local", "share"), 0o755); err != nil {
					t.Fatalf("mkdir: %v", err)
				}
				t.Setenv("XDG_DATA_HOME", "")
				t.Setenv("HOME", h)
			},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv(t)
			result := DefaultDataDir()
			if tt.expected == "" {
				if !strings.HasSuffix(result, filepath.Join(".local", "share", "multipart")) {
					t.Errorf("Expected ~/.local/share/multipart, got %s", result)
				}
				return
			}
			if result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestDefaultDataDirNoHome(t *testing.T) {
	originalHome, hadHome := os.LookupEnv("HOME")
	os.Unsetenv("HOME")
	t.Setenv("XDG_DATA_HOME", "")
	t.Cleanup(func() {
		if hadHome {
			os.Setenv("HOME", originalHome)
		}
	})

	result := DefaultDataDir()
	if result != "./data" {
		t.Errorf("Expected fallback to './data', got %s", result)
	}
}

func TestIsDir(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{
			name:     "existing directory",
			path:     ".",
			expected: true,
		},
		{
			name:     "non-existent path",
			path:     "/non/existent/path/that/does/not/exist",
			expected: false,
		},
		{
			name:     "file instead of directory",
			path:     os.Args[0], // current executable
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isDir(tt.path)
			if result != tt.expected {
				t.Errorf("isDir(%s) = %v, expected %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestDefaultDataDirCrossPlatform(t *testing.T) {
	result := DefaultDataDir()
	if result == "" {
		t.Error("DefaultDataDir should not return empty string")
	}
	if !filepath.IsAbs(result) && !strings.HasPrefix(result, "./") {
		t.Errorf("DefaultDataDir should return absolute path or start with ./, got %s", result)
	}
	if !strings.HasSuffix(strings.ToLower(result), "multipart") && result != "./data" {
		t.Errorf("DefaultDataDir should end in multipart, got %s", result)
	}
}
