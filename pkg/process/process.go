// Package process provides liveness checks for external processes.
package process

import (
	"os"
	"syscall"
)

// IsProcessAlive checks if a process with the given PID is still running.
// Works on Unix-like systems (macOS, Linux).
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	// FindProcess never fails on Unix, even for dead PIDs.
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 checks for existence without delivering a signal.
	// EPERM still means the process exists (owned by another user).
	err = process.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}
