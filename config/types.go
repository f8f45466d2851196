package config

import (
	"fmt"
	"time"

	"github.com/grovetools/sessiond/pkg/paths"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from yaml strings like "10s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root sessiond configuration.
type Config struct {
	// ClaudeDir is the Claude Code data directory to index (default ~/.claude).
	ClaudeDir string `yaml:"claude_dir"`

	// ScanInterval is how often the background rescan pass runs.
	ScanInterval Duration `yaml:"scan_interval"`

	// ActiveWindow is the freshness window used to classify a session as active.
	ActiveWindow Duration `yaml:"active_window"`

	// Pagination defaults for listing and search queries.
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`

	// ExcerptMessages bounds the recent-conversation excerpt in context exports.
	ExcerptMessages int `yaml:"excerpt_messages"`

	// Extensions holds configuration sections owned by other components
	// (e.g. "logging"). Decoded on demand via UnmarshalExtension.
	Extensions map[string]interface{} `yaml:"extensions"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		ClaudeDir:       paths.ClaudeDir(),
		ScanInterval:    Duration(10 * time.Second),
		ActiveWindow:    Duration(5 * time.Minute),
		DefaultPageSize: 50,
		MaxPageSize:     200,
		ExcerptMessages: 10,
	}
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded sessiond.yml into the provided target struct. The target must be a
// pointer. This provides a type-safe way for components to access their
// custom configuration sections.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// Not an error if the key doesn't exist; the target stays zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
