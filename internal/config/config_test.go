package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"KASSOLEND_API_URL", "KASSOLEND_TIMEOUT", "KASSOLEND_EXPIRY_MARGIN",
		"KASSOLEND_REDIRECT_DELAY", "KASSOLEND_RESET_WINDOW", "KASSOLEND_LOGOUT_STATUSES",
		"KASSOLEND_TOKEN_TTL", "KASSOLEND_MOCKAPI_ADDR", "DATABASE_URL", "JWT_SECRET",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 60*time.Second, cfg.API.ExpiryMargin)
	assert.Equal(t, 100*time.Millisecond, cfg.API.RedirectDelay)
	assert.Equal(t, 2000*time.Millisecond, cfg.API.ResetWindow)
	assert.Equal(t, []int{401}, cfg.API.LogoutStatuses)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Empty(t, cfg.File)
}

func TestLoad_FileFoundInParentDirectory(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(`
api:
  baseURL: https://api.kassolend.example/api
  timeout: 10s
  logoutStatuses: [401, 403]
logging:
  format: json
`), 0644))
	t.Chdir(nested)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://api.kassolend.example/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, []int{401, 403}, cfg.API.LogoutStatuses)
	assert.Equal(t, "json", cfg.Logging.Format)
	// Keys the file leaves out keep their defaults
	assert.Equal(t, 60*time.Second, cfg.API.ExpiryMargin)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, filepath.Join(root, ConfigFileName), cfg.File)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("api:\n  timeout: 10s\n"), 0644))
	t.Chdir(dir)
	t.Setenv("KASSOLEND_API_URL", "http://10.0.0.5:9000/api")
	t.Setenv("KASSOLEND_TIMEOUT", "5000")
	t.Setenv("KASSOLEND_RESET_WINDOW", "3s")
	t.Setenv("KASSOLEND_LOGOUT_STATUSES", "401, 403")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3*time.Second, cfg.API.ResetWindow)
	assert.Equal(t, []int{401, 403}, cfg.API.LogoutStatuses)
	assert.Equal(t, "debug", cfg.Logging.Level)

	tc := cfg.Transport()
	assert.Equal(t, cfg.API.BaseURL, tc.BaseURL)
	assert.Equal(t, []int{401, 403}, tc.ForcedLogoutStatuses)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "duration", key: "KASSOLEND_TIMEOUT", value: "soon"},
		{name: "status list", key: "KASSOLEND_LOGOUT_STATUSES", value: "401,abc"},
		{name: "status out of range", key: "KASSOLEND_LOGOUT_STATUSES", value: "200"},
		{name: "log format", key: "LOG_FORMAT", value: "xml"},
		{name: "base url", key: "KASSOLEND_API_URL", value: "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()

			require.Error(t, err)
		})
	}
}

func TestSave_RoundTripsThroughLoad(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := Default()
	cfg.API.BaseURL = "https://staging.kassolend.example/api"
	require.NoError(t, Save(filepath.Join(dir, ConfigFileName), cfg))

	loaded, err := Load()

	require.NoError(t, err)
	assert.Equal(t, cfg.API, loaded.API)
}
