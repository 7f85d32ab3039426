package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/kassolend/console/internal/transport"
)

// Config holds all configuration for the application
type Config struct {
	// API Configuration
	API APIConfig `yaml:"api"`

	// Logging Configuration
	Logging LoggingConfig `yaml:"logging"`

	// Development backend configuration
	MockAPI MockAPIConfig `yaml:"mockapi"`

	// Path of the project file the values were read from, if any
	File string `yaml:"-"`
}

// APIConfig holds the backend connection and session settings
type APIConfig struct {
	BaseURL        string        `yaml:"baseURL" validate:"required,url"`
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
	ExpiryMargin   time.Duration `yaml:"expiryMargin" validate:"gte=0"`
	RedirectDelay  time.Duration `yaml:"redirectDelay" validate:"gte=0"`
	ResetWindow    time.Duration `yaml:"resetWindow" validate:"gte=0"`
	LogoutStatuses []int         `yaml:"logoutStatuses" validate:"dive,gte=400,lte=599"`
	LoginPath      string        `yaml:"loginPath" validate:"required"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error fatal panic"`
	Format string `yaml:"format" validate:"oneof=json console"` // json, console
}

// MockAPIConfig holds settings for the development backend
type MockAPIConfig struct {
	Addr        string        `yaml:"addr" validate:"required"`
	DatabaseURL string        `yaml:"databaseURL" validate:"required"`
	JWTSecret   string        `yaml:"jwtSecret" validate:"required,min=16"`
	TokenTTL    time.Duration `yaml:"tokenTTL" validate:"gt=0"`
	// PasswordCost is the bcrypt cost; zero selects the library default
	PasswordCost int `yaml:"passwordCost" validate:"omitempty,min=4,max=31"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	tc := transport.DefaultConfig()
	return &Config{
		API: APIConfig{
			BaseURL:        tc.BaseURL,
			Timeout:        tc.Timeout,
			ExpiryMargin:   tc.ExpiryMargin,
			RedirectDelay:  tc.RedirectDelay,
			ResetWindow:    tc.ResetWindow,
			LogoutStatuses: tc.ForcedLogoutStatuses,
			LoginPath:      tc.LoginPath,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		MockAPI: MockAPIConfig{
			Addr:        ":8080",
			DatabaseURL: "file::memory:?cache=shared",
			JWTSecret:   "kassolend-development-secret",
			TokenTTL:    time.Hour,
		},
	}
}

// Load builds the configuration from defaults, the nearest kassolend.yaml, and
// environment variables, in increasing precedence
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	cfg := Default()

	path, err := FindConfigFile()
	if err == nil {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
		cfg.File = path
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("KASSOLEND_API_URL"); v != "" {
		c.API.BaseURL = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"KASSOLEND_TIMEOUT", &c.API.Timeout},
		{"KASSOLEND_EXPIRY_MARGIN", &c.API.ExpiryMargin},
		{"KASSOLEND_REDIRECT_DELAY", &c.API.RedirectDelay},
		{"KASSOLEND_RESET_WINDOW", &c.API.ResetWindow},
		{"KASSOLEND_TOKEN_TTL", &c.MockAPI.TokenTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("KASSOLEND_LOGOUT_STATUSES"); v != "" {
		statuses, err := parseStatuses(v)
		if err != nil {
			return fmt.Errorf("invalid KASSOLEND_LOGOUT_STATUSES: %w", err)
		}
		c.API.LogoutStatuses = statuses
	}

	if v := os.Getenv("KASSOLEND_MOCKAPI_ADDR"); v != "" {
		c.MockAPI.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.MockAPI.DatabaseURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.MockAPI.JWTSecret = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	return nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Transport returns the transport settings
func (c *Config) Transport() transport.Config {
	return transport.Config{
		BaseURL:              c.API.BaseURL,
		Timeout:              c.API.Timeout,
		ExpiryMargin:         c.API.ExpiryMargin,
		RedirectDelay:        c.API.RedirectDelay,
		ResetWindow:          c.API.ResetWindow,
		ForcedLogoutStatuses: c.API.LogoutStatuses,
		LoginPath:            c.API.LoginPath,
	}
}

// parseDuration accepts a Go duration ("30s") or a bare number of milliseconds
func parseDuration(v string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

// parseStatuses reads a comma-separated list of HTTP status codes
func parseStatuses(v string) ([]int, error) {
	var statuses []int
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("status %q is not a number", part)
		}
		statuses = append(statuses, code)
	}
	return statuses, nil
}
