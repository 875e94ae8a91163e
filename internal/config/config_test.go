package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SERVER_HOST", "SERVER_PORT", "UPLOAD_LIMIT_MB",
		"LOG_LEVEL", "LOG_FORMAT", "DEFAULT_BANK", "EXPORT_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.Equal(t, 20*1024*1024, cfg.Server.UploadLimitBytes())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "", cfg.Parse.DefaultBank)
	assert.Equal(t, "csv", cfg.Parse.ExportFormat)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("DEFAULT_BANK", "Central")
	t.Setenv("EXPORT_FORMAT", "XLSX")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "central", cfg.Parse.DefaultBank)
	assert.Equal(t, "xlsx", cfg.Parse.ExportFormat)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"zero upload limit", "UPLOAD_LIMIT_MB", "0"},
		{"unknown export format", "EXPORT_FORMAT", "pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvAsInt_BadValue(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	assert.Equal(t, 8080, getEnvAsInt("SERVER_PORT", 8080))
}
