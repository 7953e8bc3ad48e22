package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/hko-weather-proxy/internal/weather"
	"github.com/i474232898/hko-weather-proxy/internal/weather/providers"
)

var validate = validator.New()

type AppConfig struct {
	HKOBaseURL  string        `validate:"required,url"`
	HTTPTimeout time.Duration `validate:"gt=0"`

	CacheTTL time.Duration `validate:"gt=0"`

	RetryAttempts int           `validate:"gte=1"`
	RetryDelay    time.Duration `validate:"gte=0"`

	// BreakerMaxFailures of 0 disables the circuit breaker.
	BreakerMaxFailures  uint32
	BreakerOpenTimeout  time.Duration `validate:"gt=0"`
	DefaultLanguage     weather.Language
	AutomationEnabled   bool
	AutomationInterval  time.Duration `validate:"gt=0"`
	AutomationDataTypes []weather.DataType `validate:"min=1"`

	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `validate:"oneof=json text"`
}

// Load reads configuration from the environment, after applying any .env files.
func Load(files ...string) (*AppConfig, error) {
	if err := godotenv.Load(files...); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	cfg := &AppConfig{
		HKOBaseURL: getenvDefault("HKO_BASE_URL", providers.DefaultHKOBaseURL),
		Port:       getenvDefault("PORT", "8080"),
		LogLevel:   strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
		LogFormat:  strings.ToLower(getenvDefault("LOG_FORMAT", "json")),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", weather.DefaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.RetryAttempts, err = getenvInt("RETRY_ATTEMPTS", weather.DefaultRetryAttempts); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = getenvDuration("RETRY_DELAY", weather.DefaultRetryDelay); err != nil {
		return nil, err
	}

	maxFailures, err := getenvInt("BREAKER_MAX_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	if maxFailures < 0 {
		return nil, fmt.Errorf("invalid BREAKER_MAX_FAILURES: must not be negative")
	}
	cfg.BreakerMaxFailures = uint32(maxFailures)
	if cfg.BreakerOpenTimeout, err = getenvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.DefaultLanguage, err = weather.ParseLanguage(os.Getenv("DEFAULT_LANGUAGE"), weather.DefaultLanguage); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_LANGUAGE: %w", err)
	}

	if cfg.AutomationEnabled, err = getenvBool("AUTOMATION_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.AutomationInterval, err = getenvDuration("AUTOMATION_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AutomationDataTypes, err = parseDataTypes(getenvDefault("AUTOMATION_ENDPOINTS", "rhrread,flw,warnsum")); err != nil {
		return nil, fmt.Errorf("invalid AUTOMATION_ENDPOINTS: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Breaker returns the upstream circuit breaker settings.
func (c *AppConfig) Breaker() providers.BreakerConfig {
	return providers.BreakerConfig{
		MaxFailures: c.BreakerMaxFailures,
		OpenTimeout: c.BreakerOpenTimeout,
	}
}

func parseDataTypes(raw string) ([]weather.DataType, error) {
	var out []weather.DataType
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dt, err := weather.ParseDataType(part)
		if err != nil {
			return nil, err
		}
		out = append(out, dt)
	}
	return out, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// getenvDuration accepts Go duration strings; bare integers are milliseconds.
func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
