// Package paths provides XDG-compliant path resolution for sessiond.
//
// Resolution order:
// 1. SESSIOND_HOME (portable root) → $SESSIOND_HOME/{config,state,cache}
// 2. XDG env vars → $XDG_*_HOME/sessiond
// 3. Platform defaults → ~/.config/sessiond, ~/.local/state/sessiond, etc.
package paths

import (
	"os"
	"path/filepath"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv("SESSIOND_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv("SESSIOND_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the sessiond config directory.
func ConfigDir() string {
	return filepath.Join(getConfigHome(), "sessiond")
}

// StateDir returns the sessiond state directory (logs, socket, pidfile).
func StateDir() string {
	return filepath.Join(getStateHome(), "sessiond")
}

// LogDir returns the directory for daemon log files.
func LogDir() string {
	return filepath.Join(StateDir(), "logs")
}

// SocketPath returns the unix socket path for the daemon API.
func SocketPath() string {
	return filepath.Join(StateDir(), "sessiond.sock")
}

// PidFilePath returns the daemon pidfile path.
func PidFilePath() string {
	return filepath.Join(StateDir(), "sessiond.pid")
}

// ConfigFilePath returns the default config file location.
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "sessiond.yml")
}
