package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  name: belleza-test
database:
  path: "test.db"
api:
  enabled: true
  auth:
    enabled: true
    api_keys:
      - key: "secret"
        name: "frontend"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "belleza-test", cfg.App.Name)
	assert.Equal(t, "test.db", cfg.Database.Path)
	require.Len(t, cfg.API.Auth.APIKeys, 1)
	assert.Equal(t, "secret", cfg.API.Auth.APIKeys[0].Key)

	// Defaults applied.
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.Header)
	assert.Equal(t, 24*60*60, cfg.Redis.SessionTTL)
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/tmp/env.db")
	path := writeConfig(t, `
database:
  path: "${TEST_DB_PATH}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database path",
		},
		{
			name: "auth enabled without keys",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Auth.Enabled = true
				c.API.Auth.APIKeys = nil
			},
			wantErr: "no api keys",
		},
		{
			name: "empty api key",
			mutate: func(c *Config) {
				c.API.Auth.APIKeys = []APIClientKey{{Name: "x"}}
			},
			wantErr: "is empty",
		},
		{
			name: "redis enabled without address",
			mutate: func(c *Config) {
				c.Redis.Enabled = true
				c.Redis.Address = ""
			},
			wantErr: "redis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Database: DatabaseConfig{Path: "x.db"}}
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
