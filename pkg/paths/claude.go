package paths

import (
	"os"
	"path/filepath"
)

// ClaudeDir returns the Claude Code data directory that sessiond reads from.
// The SESSIOND_CLAUDE_DIR environment variable overrides the default ~/.claude.
func ClaudeDir() string {
	if dir := os.Getenv("SESSIOND_CLAUDE_DIR"); dir != "" {
		return dir
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".claude")
	}
	return ""
}

// ProjectsDir returns the directory containing per-project transcript directories.
func ProjectsDir(claudeDir string) string {
	return filepath.Join(claudeDir, "projects")
}

// TodosDir returns the directory containing per-session todo files.
func TodosDir(claudeDir string) string {
	return filepath.Join(claudeDir, "todos")
}

// DebugDir returns the directory holding per-session debug logs and the
// "latest" symlink that points at the most recently active session.
func DebugDir(claudeDir string) string {
	return filepath.Join(claudeDir, "debug")
}

// StatsCachePath returns the path of the aggregate stats cache file.
func StatsCachePath(claudeDir string) string {
	return filepath.Join(claudeDir, "stats-cache.json")
}
