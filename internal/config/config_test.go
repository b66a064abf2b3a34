package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"INFIP_API_KEY": "key"}))
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.InfipAPIKey)
	assert.Equal(t, "https://api.infip.pro", cfg.InfipBaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "img4", cfg.DefaultModel)
	assert.Equal(t, "1024x1024", cfg.DefaultImageSize)
	assert.Equal(t, 120*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 10*time.Second, cfg.DiagnosticTimeout)
	assert.Equal(t, HistoryBackendUpstream, cfg.HistoryBackend)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, 1.0, cfg.GenerateRPS)
	assert.Equal(t, 3, cfg.GenerateBurst)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"INFIP_API_KEY":      "key",
		"INFIP_BASE_URL":     "http://localhost:9000/",
		"DIAGNOSTIC_TIMEOUT": "3",
		"UPSTREAM_TIMEOUT":   "30",
		"GENERATE_RPS":       "0.5",
		"HISTORY_BACKEND":    "Postgres",
		"HISTORY_LIMIT":      "20",
		"DB_HOST":            "db",
		"DB_USER":            "app",
		"DB_PASSWORD":        "secret",
		"DB_NAME":            "images",
		"DB_PORT":            "6543",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.InfipBaseURL)
	assert.Equal(t, 3*time.Second, cfg.DiagnosticTimeout)
	assert.Equal(t, 30*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 0.5, cfg.GenerateRPS)
	assert.Equal(t, HistoryBackendPostgres, cfg.HistoryBackend)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, "host=db port=6543 user=app password=secret dbname=images sslmode=disable", cfg.GetDSN())
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing api key", map[string]string{}, "INFIP_API_KEY is required"},
		{"unknown backend", map[string]string{"INFIP_API_KEY": "k", "HISTORY_BACKEND": "redis"}, "unknown HISTORY_BACKEND"},
		{"postgres without host", map[string]string{"INFIP_API_KEY": "k", "HISTORY_BACKEND": "postgres"}, "DB_HOST is required"},
		{"unknown default size", map[string]string{"INFIP_API_KEY": "k", "DEFAULT_IMAGE_SIZE": "1024x1025"}, "DEFAULT_IMAGE_SIZE \"1024x1025\" is not one of"},
		{"zero diagnostic timeout", map[string]string{"INFIP_API_KEY": "k", "DIAGNOSTIC_TIMEOUT": "0"}, "DIAGNOSTIC_TIMEOUT must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envMap(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
