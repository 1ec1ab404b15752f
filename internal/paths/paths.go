// Package paths resolves the modelkit configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// File and directory names.
const (
	appName            = "modelkit"
	DefaultDataDirName = ".modelkit"
	ConfigFileName     = "config.yaml"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "MODELKIT_CONFIG_DIR"
	EnvDataDir   = "MODELKIT_DATA_DIR"
)

// host holds the lookups that depend on the machine. Tests replace them.
var host = struct {
	goos          string
	getwd         func() (string, error)
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	getwd:         os.Getwd,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns <user config dir>/modelkit. On Linux
// $XDG_CONFIG_HOME is honored, falling back to ~/.config.
func DefaultConfigDir() (string, error) {
	if host.goos == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := host.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	}
	dir, err := host.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// ResolveConfigDir picks the configuration directory: flag, then
// MODELKIT_CONFIG_DIR, then DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if dir, ok := firstSet(flag, os.Getenv(EnvConfigDir)); ok {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the data directory: flag, then the data_dir key from
// config.yaml, then MODELKIT_DATA_DIR, then ./.modelkit. Snapshots live under
// <data-dir>/models.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if dir, ok := firstSet(flag, configYAMLValue, os.Getenv(EnvDataDir)); ok {
		return filepath.Abs(dir)
	}
	cwd, err := host.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the config.yaml path inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

func firstSet(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if c != "" {
			return c, true
		}
	}
	return "", false
}
