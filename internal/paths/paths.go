// Package paths resolves the configuration and data directory locations.
// Configuration defaults to the platform convention; data defaults to a
// directory under the CWD so a bare invocation keeps its state local.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDirName is the CWD-relative data directory used when no
// override is active.
const DefaultDataDirName = ".cadence-db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "CADENCE_CONFIG_DIR"
	EnvDataDir   = "CADENCE_DATA_DIR"
)

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > CADENCE_CONFIG_DIR env > platform default
// ($XDG_CONFIG_HOME/cadence or ~/.config/cadence on Linux, the
// os.UserConfigDir convention elsewhere).
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "cadence"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "cadence"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cadence"), nil
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config.yaml data_dir > CADENCE_DATA_DIR env > $(CWD)/.cadence-db.
// There is no platform-convention data directory; the CWD fallback is the
// default mode.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
