package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "console", cfg.Logger().Format)
	assert.Equal(t, TrackerModeMock, cfg.Tracker().Mode)
	assert.Equal(t, 10*time.Second, cfg.Tracker().Timeout)
	assert.Equal(t, 2, cfg.Repo().ContextRadius)
	assert.Equal(t, "rules", cfg.Reasoner().Mode)
	assert.Equal(t, ".", cfg.Store().Dir)
	assert.Equal(t, ":8001", cfg.Notify().ListenAddr)
	assert.Equal(t, "http://localhost:8001/notify", cfg.Notify().Endpoint)

	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromViper(t *testing.T) {
	t.Run("reads values from a config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		content := `
tracker:
  mode: http
  base_url: https://errors.example.com
store:
  dir: ` + dir + `
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		v := viper.New()
		SetDefaults(v)
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, TrackerModeHTTP, cfg.Tracker().Mode)
		assert.Equal(t, "https://errors.example.com", cfg.Tracker().BaseURL)
		assert.Equal(t, dir, cfg.Store().Dir)
	})

	t.Run("api key comes from the environment", func(t *testing.T) {
		t.Setenv("TRIAGE_TRACKER_API_KEY", "secret-token")

		v := viper.New()
		SetDefaults(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "secret-token", cfg.Tracker().APIKey)
	})

	t.Run("expands the store directory", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("store.dir", "~/reports")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		home, err := os.UserHomeDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "reports"), cfg.Store().Dir)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return NewDefaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown tracker mode",
			mutate:  func(c *Config) { c.TrackerC.Mode = "carrier-pigeon" },
			wantErr: "tracker.mode",
		},
		{
			name: "http mode requires a base url",
			mutate: func(c *Config) {
				c.TrackerC.Mode = TrackerModeHTTP
				c.TrackerC.BaseURL = ""
			},
			wantErr: "tracker.base_url",
		},
		{
			name:    "tracker timeout must be positive",
			mutate:  func(c *Config) { c.TrackerC.Timeout = 0 },
			wantErr: "tracker.timeout",
		},
		{
			name:    "negative context radius",
			mutate:  func(c *Config) { c.RepoC.ContextRadius = -1 },
			wantErr: "context_radius",
		},
		{
			name:    "store dir required",
			mutate:  func(c *Config) { c.StoreC.Dir = "" },
			wantErr: "store.dir",
		},
		{
			name:    "rate limit must be positive",
			mutate:  func(c *Config) { c.NotifyC.RateLimit = 0 },
			wantErr: "rate_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
