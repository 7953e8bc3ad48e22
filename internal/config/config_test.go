package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/hko-weather-proxy/internal/weather"
)

var configKeys = []string{
	"HKO_BASE_URL", "CACHE_TTL", "RETRY_ATTEMPTS", "RETRY_DELAY", "HTTP_TIMEOUT",
	"AUTOMATION_ENABLED", "AUTOMATION_INTERVAL", "AUTOMATION_ENDPOINTS", "DEFAULT_LANGUAGE",
	"BREAKER_MAX_FAILURES", "BREAKER_OPEN_TIMEOUT", "PORT", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "https://data.weather.gov.hk/weatherAPI/opendata/weather.php", cfg.HKOBaseURL)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.AutomationEnabled)
	assert.Equal(t, 5*time.Minute, cfg.AutomationInterval)
	assert.Equal(t, []weather.DataType{
		weather.DataTypeCurrentReport, weather.DataTypeLocalForecast, weather.DataTypeWarningSummary,
	}, cfg.AutomationDataTypes)
	assert.Equal(t, weather.LanguageTraditionalChinese, cfg.DefaultLanguage)
	assert.EqualValues(t, 5, cfg.BreakerMaxFailures)
	assert.Equal(t, 30*time.Second, cfg.BreakerOpenTimeout)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_TTL", "60000")
	t.Setenv("RETRY_DELAY", "250ms")
	t.Setenv("RETRY_ATTEMPTS", "5")
	t.Setenv("AUTOMATION_ENABLED", "false")
	t.Setenv("AUTOMATION_ENDPOINTS", " fnd , swt ,")
	t.Setenv("DEFAULT_LANGUAGE", "en")
	t.Setenv("BREAKER_MAX_FAILURES", "0")
	t.Setenv("LOG_FORMAT", "TEXT")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.False(t, cfg.AutomationEnabled)
	assert.Equal(t, []weather.DataType{weather.DataTypeNineDayForecast, weather.DataTypeSpecialTips}, cfg.AutomationDataTypes)
	assert.Equal(t, weather.LanguageEnglish, cfg.DefaultLanguage)
	assert.EqualValues(t, 0, cfg.Breaker().MaxFailures)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that are already set, even to "".
	os.Unsetenv("PORT")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PORT") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"CACHE_TTL":            "soon",
		"RETRY_ATTEMPTS":       "0",
		"AUTOMATION_ENABLED":   "maybe",
		"AUTOMATION_ENDPOINTS": "rhrread,bogus",
		"DEFAULT_LANGUAGE":     "fr",
		"BREAKER_MAX_FAILURES": "-1",
		"HKO_BASE_URL":         "not a url",
		"LOG_FORMAT":           "xml",
		"AUTOMATION_INTERVAL":  "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
