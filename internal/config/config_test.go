package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":5001", cfg.ListenAddr)
	assert.Equal(t, "data.json", cfg.StorePath)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, 4200*time.Millisecond, cfg.PacingInterval)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("MAILMINDER_LISTEN_ADDR", ":8080")
	t.Setenv("MAILMINDER_PACING_INTERVAL", "1s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, time.Second, cfg.PacingInterval)
}

func TestLoadYAMLFile(t *testing.T) {
	// t.Setenv registers the restore; the variable must be absent so the
	// file value is not overridden.
	t.Setenv("GEMINI_API_KEY", "placeholder")
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "gemini_api_key: file-key\nlisten_addr: \":9000\"\nstore_path: /tmp/test-data.json\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.GeminiAPIKey)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test-data.json", cfg.StorePath)
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}
