package errors

import "fmt"

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *SessiondError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *SessiondError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// SessionNotFound creates a session lookup failure error
func SessionNotFound(sessionID string) *SessiondError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("session '%s' not found", sessionID)).
		WithDetail("session_id", sessionID)
}

// ScanIO wraps a filesystem failure encountered during a scan pass.
// The affected file is skipped for the current pass and retried on the next one.
func ScanIO(path string, err error) *SessiondError {
	return Wrap(err, ErrCodeScanIO, fmt.Sprintf("failed to read %s", path)).
		WithDetail("path", path)
}

// DaemonNotRunning creates an error for CLI commands that require the daemon
func DaemonNotRunning(socketPath string) *SessiondError {
	return New(ErrCodeDaemonNotRunning, "sessiond daemon is not running").
		WithDetail("socket", socketPath)
}
