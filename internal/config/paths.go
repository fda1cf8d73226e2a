package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName is used for the config and state directory names.
const AppName = "fonts-installer"

// DefaultInstallDir returns the directory fonts are installed into when the
// config does not set one: $XDG_DATA_HOME/fonts/mscorefonts on Linux.
func DefaultInstallDir() string {
	return filepath.Join(xdg.DataHome, "fonts", "mscorefonts")
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/fonts-installer/fonts.lua.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "fonts.lua")
}

// StateDir returns $XDG_STATE_HOME/fonts-installer, which holds the run lock.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}
