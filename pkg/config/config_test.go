package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.Admission.ConcurrencyLimit)
	assert.Equal(t, 10, cfg.Admission.WindowLimit)
	assert.Equal(t, 5*time.Second, cfg.Admission.WindowSize)
	assert.Equal(t, time.Second, cfg.Retry.BackoffUnit)
	require.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
api:
  user_agent: "test/1.0"
  request_timeout: 2s
admission:
  concurrency_limit: 3
  window_size: 1500ms
  window_limit: 7
retry:
  max_retries: 2
  backoff_base: 1.5
`))
	require.NoError(t, err)

	assert.Equal(t, "test/1.0", cfg.API.UserAgent)
	assert.Equal(t, 2*time.Second, cfg.API.RequestTimeout)
	assert.Equal(t, 3, cfg.Admission.ConcurrencyLimit)
	assert.Equal(t, 1500*time.Millisecond, cfg.Admission.WindowSize)
	assert.Equal(t, 7, cfg.Admission.WindowLimit)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.InDelta(t, 1.5, cfg.Retry.BackoffBase, 1e-9)
	// untouched fields fall back to defaults
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("BGG_CONCURRENCY_LIMIT", "9")
	t.Setenv("BGG_WINDOW_SIZE", "250ms")
	t.Setenv("BGG_MAX_RETRIES", "not-a-number")

	cfg, err := Parse([]byte("retry:\n  max_retries: 4\n"))
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Admission.ConcurrencyLimit)
	assert.Equal(t, 250*time.Millisecond, cfg.Admission.WindowSize)
	assert.Equal(t, 4, cfg.Retry.MaxRetries, "malformed override is ignored")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative concurrency", func(c *Config) { c.Admission.ConcurrencyLimit = -1 }},
		{"zero window size", func(c *Config) { c.Admission.WindowSize = -time.Second }},
		{"negative window limit", func(c *Config) { c.Admission.WindowLimit = -3 }},
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -1 }},
		{"backoff base below one", func(c *Config) { c.Retry.BackoffBase = 0.5 }},
		{"negative jitter", func(c *Config) { c.Retry.Jitter = -time.Millisecond }},
		{"relative base url", func(c *Config) { c.API.BaseURL = "/xmlapi2" }},
		{"empty user agent", func(c *Config) { c.API.UserAgent = " " }},
		{"zero timeout", func(c *Config) { c.API.RequestTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestSource_Update(t *testing.T) {
	src, err := NewSource(Default())
	require.NoError(t, err)

	require.NoError(t, src.Update(func(c *Config) { c.Admission.ConcurrencyLimit = 2 }))
	assert.Equal(t, 2, src.Load().Admission.ConcurrencyLimit)

	err = src.Update(func(c *Config) { c.Admission.ConcurrencyLimit = 0 })
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, 2, src.Load().Admission.ConcurrencyLimit, "rejected update must not apply")
}

func TestSource_LoadReturnsCopy(t *testing.T) {
	src, err := NewSource(Default())
	require.NoError(t, err)

	cfg := src.Load()
	cfg.Admission.WindowLimit = 999
	assert.Equal(t, 10, src.Load().Admission.WindowLimit)
}

func TestNewSource_Invalid(t *testing.T) {
	cfg := Default()
	cfg.Admission.WindowLimit = -1
	_, err := NewSource(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSource_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bgg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("admission:\n  concurrency_limit: 2\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	src, err := NewSource(*cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closer, err := src.Watch(ctx, path, 20*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	defer closer.Close()

	require.NoError(t, os.WriteFile(path, []byte("admission:\n  concurrency_limit: 6\n"), 0o600))
	assert.Eventually(t, func() bool {
		return src.Load().Admission.ConcurrencyLimit == 6
	}, 2*time.Second, 10*time.Millisecond)

	// an invalid file keeps the previous config
	require.NoError(t, os.WriteFile(path, []byte("admission:\n  concurrency_limit: -4\n"), 0o600))
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 6, src.Load().Admission.ConcurrencyLimit)
}

func TestSource_WatchReleasedOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bgg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("admission:\n  concurrency_limit: 2\n"), 0o600))

	src, err := NewSource(Default())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	closer, err := src.Watch(ctx, path, 20*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	w, ok := closer.(*watch)
	require.True(t, ok)

	cancel()
	select {
	case <-w.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher goroutine still running after cancel")
	}
	assert.ErrorIs(t, w.watcher.Add(dir), fsnotify.ErrClosed, "watch handle released without Close")
	assert.NoError(t, closer.Close())
}
