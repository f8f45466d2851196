// Package config loads sessiond configuration from sessiond.yml.
package config

import (
	"os"
	"regexp"
	"time"

	"github.com/grovetools/sessiond/errors"
	"github.com/grovetools/sessiond/pkg/paths"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads and parses a sessiond configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration data with environment variable expansion
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config file")
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads configuration from the first of:
// 1. SESSIOND_CONFIG environment variable
// 2. $XDG_CONFIG_HOME/sessiond/sessiond.yml
// 3. ./sessiond.yml
// A missing config file is not an error; defaults are returned instead.
func LoadDefault() (*Config, error) {
	candidates := []string{}
	if p := os.Getenv("SESSIOND_CONFIG"); p != "" {
		candidates = append(candidates, p)
	}
	candidates = append(candidates, paths.ConfigFilePath(), "sessiond.yml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := Default()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// expandEnvVars replaces ${VAR} references with environment values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		name := envVarRegex.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// applyEnvOverrides applies SESSIOND_* environment overrides on top of
// whatever was loaded from file.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("SESSIOND_CLAUDE_DIR"); dir != "" {
		c.ClaudeDir = dir
	}
	if v := os.Getenv("SESSIOND_SCAN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ScanInterval = Duration(d)
		}
	}
	if v := os.Getenv("SESSIOND_ACTIVE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ActiveWindow = Duration(d)
		}
	}
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	if c.ClaudeDir == "" {
		return errors.ConfigInvalid("claude_dir must not be empty")
	}
	if time.Duration(c.ScanInterval) <= 0 {
		return errors.ConfigInvalid("scan_interval must be positive")
	}
	if time.Duration(c.ActiveWindow) <= 0 {
		return errors.ConfigInvalid("active_window must be positive")
	}
	if c.DefaultPageSize <= 0 || c.MaxPageSize < c.DefaultPageSize {
		return errors.ConfigInvalid("page sizes must satisfy 0 < default_page_size <= max_page_size")
	}
	return nil
}
