package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrInitWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")
	cfg, err := LoadOrInit(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoadOrInitFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9000"
credential:
  sessdata: abc
bcut:
  poll_interval_ms: 100
`), 0o644))

	cfg, err := LoadOrInit(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "abc", cfg.Credential.Sessdata)
	assert.Equal(t, 100*time.Millisecond, cfg.PollPolicy().Interval)
	assert.Equal(t, 60, cfg.PollPolicy().MaxAttempts)
	assert.Equal(t, 6*time.Hour, cfg.WbiCacheTTL())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
}

func TestLoadOrInitBadYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [1"), 0o644))
	_, err := LoadOrInit(path)
	assert.Error(t, err)
}

func TestLoadAppliesEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("ac_time_value=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("ac_time_value") })
	t.Setenv("bili_jct", "from-env")
	t.Setenv("LISTEN", ":7000")

	require.NoError(t, Load(filepath.Join(dir, "config.yaml"), envPath))
	cfg := Get()
	assert.Equal(t, "from-dotenv", cfg.Credential.AcTimeValue)
	assert.Equal(t, "from-env", cfg.Credential.BiliJct)
	assert.Equal(t, ":7000", cfg.Listen)
	assert.Same(t, cfg, Get())

	assert.NoError(t, Load(filepath.Join(dir, "config.yaml"), filepath.Join(dir, "missing.env")))
}

func TestUpdateReplacesSnapshot(t *testing.T) {
	t.Cleanup(func() { conf.Store(nil) })
	conf.Store(nil)
	def := Get()
	assert.Equal(t, ":8000", def.Listen)

	old := Update(func(c *Config) { c.Listen = ":9000" })
	assert.Same(t, old, Get())

	next := Update(func(c *Config) { c.Bcut.PollMaxAttempts = 3 })
	assert.Equal(t, ":9000", next.Listen)
	assert.Equal(t, 3, Get().Bcut.PollMaxAttempts)
	assert.Equal(t, 60, old.Bcut.PollMaxAttempts)
}
