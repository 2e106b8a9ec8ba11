package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.StateDir)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wispr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
probe_url: http://captive.example.net/generate_204
probe_domain: example.net
timeout: 5s
insecure_skip_verify: false
log:
  level: debug
  file: /tmp/wispr.log
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://captive.example.net/generate_204", cfg.ProbeURL)
	assert.Equal(t, "example.net", cfg.ProbeDomain)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "logfmt", cfg.Log.Format)
	assert.Equal(t, "/tmp/wispr.log", cfg.Log.File)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: [1, 2"), 0600))
	_, err = Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"probe url not a url": func(c *Config) { c.ProbeURL = "not a url" },
		"probe url not http":  func(c *Config) { c.ProbeURL = "ftp://example.com" },
		"zero timeout":        func(c *Config) { c.Timeout = 0 },
		"log format":          func(c *Config) { c.Log.Format = "xml" },
		"log level":           func(c *Config) { c.Log.Level = "chatty" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
