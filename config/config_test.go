package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/sessiond/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBytes(t *testing.T) {
	data := `
claude_dir: /tmp/claude-test
scan_interval: 3s
active_window: 2m
default_page_size: 25
max_page_size: 100
extensions:
  logging:
    level: debug
`
	cfg, err := LoadFromBytes([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/claude-test", cfg.ClaudeDir)
	assert.Equal(t, 3*time.Second, time.Duration(cfg.ScanInterval))
	assert.Equal(t, 2*time.Minute, time.Duration(cfg.ActiveWindow))
	assert.Equal(t, 25, cfg.DefaultPageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)

	// Extensions decode through mapstructure
	var logCfg struct {
		Level string `yaml:"level"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)

	// Unknown extension keys leave the target zero-valued
	var missing struct {
		Level string `yaml:"level"`
	}
	require.NoError(t, cfg.UnmarshalExtension("nope", &missing))
	assert.Empty(t, missing.Level)
}

func TestLoadFromBytesDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("claude_dir: /tmp/c\n"))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, time.Duration(cfg.ScanInterval))
	assert.Equal(t, 5*time.Minute, time.Duration(cfg.ActiveWindow))
	assert.Equal(t, 50, cfg.DefaultPageSize)
	assert.Equal(t, 200, cfg.MaxPageSize)
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("SESSIOND_TEST_DIR", "/tmp/from-env")

	cfg, err := LoadFromBytes([]byte("claude_dir: ${SESSIOND_TEST_DIR}\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env", cfg.ClaudeDir)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SESSIOND_CLAUDE_DIR", "/tmp/override")
	t.Setenv("SESSIOND_SCAN_INTERVAL", "30s")
	t.Setenv("SESSIOND_ACTIVE_WINDOW", "1m")

	cfg, err := LoadFromBytes([]byte("claude_dir: /tmp/file\nscan_interval: 5s\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override", cfg.ClaudeDir)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.ScanInterval))
	assert.Equal(t, time.Minute, time.Duration(cfg.ActiveWindow))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.ClaudeDir = "/tmp/c"
	require.NoError(t, cfg.Validate())

	cfg.ScanInterval = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))

	cfg = Default()
	cfg.ClaudeDir = "/tmp/c"
	cfg.MaxPageSize = 1
	require.Error(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessiond.yml")
	require.NoError(t, os.WriteFile(path, []byte("claude_dir: /tmp/c\nscan_interval: 1s\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Second, time.Duration(cfg.ScanInterval))
}
