package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-sourcer/internal/sources"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sourcer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 10, cfg.Search.MaxPages)
	assert.Equal(t, 5.0, cfg.Search.QPS)
	assert.Equal(t, 8*time.Second, cfg.Search.PageTimeout)
	assert.Equal(t, 6*time.Hour, cfg.Redis.CacheTTL)
	assert.False(t, cfg.Oracle.Enabled)
	assert.Equal(t, 512, cfg.Oracle.CacheSize)
	assert.Equal(t, 24, cfg.Auth.ExpirationHours)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, time.Hour, cfg.RateLimit.SearchWindow)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  url: postgres://localhost/sourcer
search:
  api_key: key
  page_timeout: 3s
  engines:
    professional_network: cx-li
    code_hosting: cx-gh
oracle:
  enabled: true
  api_key: gem
  timeout: 2s
log:
  json: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://localhost/sourcer", cfg.Database.URL)
	assert.Equal(t, 3*time.Second, cfg.Search.PageTimeout)
	assert.Equal(t, "cx-li", cfg.Search.EngineID(sources.ProfessionalNetwork))
	assert.Equal(t, "", cfg.Search.EngineID(sources.FreelanceMarketplace))
	assert.Equal(t, "cx-gh", cfg.Search.EngineID(sources.CodeHosting))
	assert.True(t, cfg.Oracle.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Oracle.Timeout)
	assert.True(t, cfg.Log.JSON)

	err = cfg.ValidateServe()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")
	assert.NotContains(t, err.Error(), "database.url")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("SOURCER_SERVER_PORT", "7070")
	t.Setenv("SOURCER_SEARCH_ENGINES_FREELANCE_MARKETPLACE", "cx-up")
	t.Setenv("SOURCER_AUTH_JWT_SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "cx-up", cfg.Search.EngineID(sources.FreelanceMarketplace))
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg, err := Load("/nonexistent/sourcer.yaml")
		assert.Nil(t, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("out of range", func(t *testing.T) {
		path := writeConfig(t, "search:\n  max_pages: 40\n")
		cfg, err := Load(path)
		assert.Nil(t, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search.max_pages")
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "negative qps", mutate: func(c *Config) { c.Search.QPS = -1 }, wantErr: "search.qps"},
		{name: "oracle timeout", mutate: func(c *Config) { c.Oracle.Timeout = 0 }, wantErr: "oracle.timeout"},
		{name: "expiration", mutate: func(c *Config) { c.Auth.ExpirationHours = 0 }, wantErr: "auth.expiration_hours"},
		{name: "rate limit window", mutate: func(c *Config) { c.RateLimit.SearchWindow = 0 }, wantErr: "ratelimit"},
		{name: "rate limit disabled", mutate: func(c *Config) {
			c.RateLimit.Enabled = false
			c.RateLimit.SearchLimit = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
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

func TestValidateServe(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	err = cfg.ValidateServe()
	require.Error(t, err)
	for _, field := range []string{"database.url", "search.api_key", "engine ID", "auth.jwt_secret"} {
		assert.Contains(t, err.Error(), field)
	}

	cfg.Database.URL = "postgres://localhost/sourcer"
	cfg.Search.APIKey = "key"
	cfg.Search.Engines.CodeHosting = "cx"
	cfg.Auth.JWTSecret = "secret"
	assert.NoError(t, cfg.ValidateServe())

	cfg.Oracle.Enabled = true
	err = cfg.ValidateServe()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle.api_key")
}
