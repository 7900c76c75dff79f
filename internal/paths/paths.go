// Package paths resolves where tablectl keeps its configuration and its
// SQLite database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under the platform base directories.
const AppName = "tablectl"

// Environment variables overriding the directories.
const (
	EnvConfigDir = "TABLECTL_CONFIG_DIR"
	EnvDataDir   = "TABLECTL_DATA_DIR"
)

// platformDir holds the lookups tests replace.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/tablectl, else ~/.config/tablectl
// Others:  os.UserConfigDir()/tablectl
func DefaultConfigDir() (string, error) {
	return xdgOr("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/tablectl, else ~/.local/share/tablectl
// Others:  os.UserConfigDir()/tablectl
func DefaultDataDir() (string, error) {
	return xdgOr("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgOr(env, homeRel string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, AppName), nil
}

// ResolveConfigDir applies flag > TABLECTL_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(flag, "", EnvConfigDir, DefaultConfigDir)
}

// ResolveDataDir applies flag > TABLECTL_DATA_DIR > the data_dir config
// value > DefaultDataDir.
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(flag, configValue, EnvDataDir, DefaultDataDir)
}

func resolve(flag, configValue, env string, fallback func() (string, error)) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if v := os.Getenv(env); v != "" {
		return filepath.Abs(v)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	return fallback()
}
