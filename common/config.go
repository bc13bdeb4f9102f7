package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	papertrade "github.com/etnz/papertrade"
	toml "github.com/pelletier/go-toml/v2"
)

// DefaultJWTSecret is the development secret. Production configurations must
// override it.
const DefaultJWTSecret = "dev-jwt-secret-change-in-production"

// Config holds all configuration for papertrade.
type Config struct {
	Environment string           `toml:"environment"`
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Oracle      OracleConfig     `toml:"oracle"`
	Accounting  AccountingConfig `toml:"accounting"`
	Auth        AuthConfig       `toml:"auth"`
	Logging     LoggingConfig    `toml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBadger = "badger"
)

// StorageConfig selects where ledgers and users are persisted.
type StorageConfig struct {
	Backend string `toml:"backend"` // memory, file or badger
	Path    string `toml:"path"`
}

// OracleConfig configures the price oracle client. With ZeroOnFailure set
// (the default) an asset whose price cannot be fetched is valued at 0;
// otherwise the failure surfaces as papertrade.ErrPriceUnavailable.
type OracleConfig struct {
	BaseURL       string  `toml:"base_url"`
	Quote         string  `toml:"quote"` // appended to every symbol, e.g. BTC -> BTCUSDT
	Timeout       string  `toml:"timeout"`
	RateLimit     float64 `toml:"rate_limit"` // requests per second, 0 means unlimited
	ZeroOnFailure bool    `toml:"zero_on_failure"`
}

// GetTimeout parses and returns the timeout duration.
func (c *OracleConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// AccountingConfig holds the valuation settings.
type AccountingConfig struct {
	CostBasis papertrade.CostBasisMethod `toml:"cost_basis"`
}

// AuthConfig holds the bearer token configuration.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			Path:    "data",
		},
		Oracle: OracleConfig{
			BaseURL:       "https://api.binance.com",
			Quote:         "USDT",
			Timeout:       "5s",
			RateLimit:     10,
			ZeroOnFailure: true,
		},
		Accounting: AccountingConfig{CostBasis: papertrade.AverageCost},
		Auth: AuthConfig{
			JWTSecret:   DefaultJWTSecret,
			TokenExpiry: "24h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies PTS_* environment variable overrides to config.
func applyEnvOverrides(config *Config) error {
	if env := os.Getenv("PTS_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("PTS_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("PTS_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PTS_PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}

	if level := os.Getenv("PTS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("PTS_DATA_PATH"); path != "" {
		config.Storage.Path = filepath.Clean(path)
	}

	if backend := os.Getenv("PTS_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = strings.ToLower(backend)
	}

	if v := os.Getenv("PTS_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}

	if v := os.Getenv("PTS_ORACLE_URL"); v != "" {
		config.Oracle.BaseURL = v
	}

	if v := os.Getenv("PTS_ORACLE_ZERO_ON_FAILURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PTS_ORACLE_ZERO_ON_FAILURE %q: %w", v, err)
		}
		config.Oracle.ZeroOnFailure = b
	}

	if v := os.Getenv("PTS_COST_BASIS"); v != "" {
		if err := config.Accounting.CostBasis.Set(v); err != nil {
			return fmt.Errorf("invalid PTS_COST_BASIS: %w", err)
		}
	}
	return nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// Validate checks the settings that have no usable fallback.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFile, BackendBadger:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage backend %s requires a path", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.IsProduction() && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DefaultJWTSecret) {
		return fmt.Errorf("auth.jwt_secret must be set in production")
	}
	if c.Oracle.RateLimit < 0 {
		return fmt.Errorf("oracle.rate_limit must not be negative, got %v", c.Oracle.RateLimit)
	}
	return nil
}
