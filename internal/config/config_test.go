package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5, cfg.Pipeline.TopK)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 100, cfg.Cache.CleanupThreshold)
	assert.Equal(t, 10*time.Minute, cfg.Cache.SweepInterval)
	assert.Equal(t, 1000, cfg.Logs.MaxLogs)
	assert.Equal(t, 30*24*time.Hour, cfg.Logs.Retention)
	assert.Equal(t, "gemini-2.5-flash", cfg.GenAI.Model)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "15m")
	t.Setenv("MAX_LOGS", "50")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("QUESTION_LIMIT", "5")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 50, cfg.Logs.MaxLogs)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.Redis.QuestionLimit)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		field string
	}{
		{"top k", "RETRIEVAL_TOP_K", "0", "RETRIEVAL_TOP_K"},
		{"max logs", "MAX_LOGS", "-1", "MAX_LOGS"},
		{"cache ttl", "CACHE_TTL", "0s", "CACHE_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLoadRejectsUnparseableValue(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("TWIN_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TWIN_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("TWIN_TEST_DOTENV"))

	assert.Error(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Europe/Berlin"}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	cfg.Timezone = "Mars/Olympus"
	_, err = cfg.Location()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "ANALYTICS_TIMEZONE", cfgErr.Field)
}
