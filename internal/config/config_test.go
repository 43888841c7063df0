package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "host=localhost user=pocket_user password=pocket_pass dbname=pocketauth sslmode=disable", cfg.DSN())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("APP_BASE_URL", "https://pocket.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Contains(t, cfg.DSN(), "host=db.internal")
	assert.Equal(t, "https://pocket.example.com", cfg.AppBaseURL)
}
