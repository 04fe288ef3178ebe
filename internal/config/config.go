// Package config loads the application's YAML configuration file, overlaid
// by environment variables (and a dev-only .env file via godotenv), in the
// same pattern the teacher's infrastructure/db.AppConfig used for its
// narrower database-only config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/broseidonlordofthebrocean/hedge/internal/infrastructure/db"
)

// ProviderConfig describes one external vendor (SEC EDGAR, market-data,
// macro-data) the vendor HTTP client wraps with rate limiting, circuit
// breaking, and budget tracking.
type ProviderConfig struct {
	Name             string        `yaml:"name"`
	Host             string        `yaml:"host"`
	BaseURL          string        `yaml:"base_url"`
	APIKeyEnv        string        `yaml:"api_key_env"`
	RequestsPerSec   float64       `yaml:"requests_per_sec"`
	Burst            int           `yaml:"burst"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	MonthlyBudgetUSD int64         `yaml:"monthly_budget_usd"`
}

// GetRequestTimeout returns the configured timeout, defaulting to the
// ambient 30s external-call timeout (spec.md §5).
func (p *ProviderConfig) GetRequestTimeout() time.Duration {
	if p.RequestTimeout > 0 {
		return p.RequestTimeout
	}
	return 30 * time.Second
}

// GetCacheTTL returns the configured cache TTL, defaulting to 5 minutes.
func (p *ProviderConfig) GetCacheTTL() time.Duration {
	if p.CacheTTL > 0 {
		return p.CacheTTL
	}
	return 5 * time.Minute
}

// GlobalConfig holds process-wide settings independent of any one vendor.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level"`
	Timezone string `yaml:"timezone"`
}

// ServerConfig configures the HTTP API (internal/interfaces/http).
type ServerConfig struct {
	Addr         string        `yaml:"addr" env:"HTTP_ADDR"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// AuthConfig configures the JWT validation boundary middleware. Issuing
// tokens, subscription tiers, and billing remain out of scope (spec.md §1c)
// — this only validates tokens minted elsewhere.
type AuthConfig struct {
	JWTPublicKeyEnv string `yaml:"jwt_public_key_env" env:"JWT_PUBLIC_KEY"`
	Issuer          string `yaml:"issuer"`
}

// SchedulerConfig configures the four cron cadences of spec.md §5/§6.
type SchedulerConfig struct {
	ScoringCron     string `yaml:"scoring_cron"`      // default "0 6 * * *" America/New_York
	AlertsCron      string `yaml:"alerts_cron"`       // default "*/5 * * * *"
	MacroCron       string `yaml:"macro_cron"`        // default "0 * * * *"
	MarketDataCron  string `yaml:"market_data_cron"`  // default "*/15 * * * *"
	AlertCooldown   time.Duration `yaml:"alert_cooldown"`
	ScoringVersion  string `yaml:"scoring_version"`
	MaxRunDuration  time.Duration `yaml:"max_run_duration"`
	ScoringWorkers  int    `yaml:"scoring_workers"`
}

// CacheConfig configures the Redis-backed cache layer.
type CacheConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// AppConfig is the root configuration document.
type AppConfig struct {
	Database  db.Config                 `yaml:"database"`
	Cache     CacheConfig                `yaml:"cache"`
	Server    ServerConfig               `yaml:"server"`
	Auth      AuthConfig                 `yaml:"auth"`
	Scheduler SchedulerConfig            `yaml:"scheduler"`
	Global    GlobalConfig               `yaml:"global"`
	Vendors   map[string]ProviderConfig  `yaml:"vendors"`
}

// DefaultAppConfig returns reasonable defaults, overridden by whatever the
// YAML file and environment supply.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: db.DefaultConfig(),
		Cache: CacheConfig{
			Addr: "localhost:6379",
			TTL:  10 * time.Minute,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Scheduler: SchedulerConfig{
			ScoringCron:    "0 6 * * *",
			AlertsCron:     "*/5 * * * *",
			MacroCron:      "0 * * * *",
			MarketDataCron: "*/15 * * * *",
			AlertCooldown:  time.Hour,
			ScoringVersion: "v1",
			MaxRunDuration: 60 * time.Minute,
			ScoringWorkers: 16,
		},
		Global: GlobalConfig{
			LogLevel: "info",
			Timezone: "America/New_York",
		},
		Vendors: map[string]ProviderConfig{},
	}
}

// Load reads configPath (if non-empty and present), applies a dev-only
// .env overlay via godotenv, then environment-variable overrides for the
// database section, same pattern as the teacher's LoadAppConfig.
func Load(configPath string) (*AppConfig, error) {
	_ = godotenv.Load() // optional: missing .env is not an error

	cfg := DefaultAppConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file %s: %w", configPath, err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
			}
		}
	}

	applyDatabaseEnvOverrides(&cfg.Database)
	applyCacheEnvOverrides(&cfg.Cache)
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDatabaseEnvOverrides(c *db.Config) {
	if dsn := os.Getenv("PG_DSN"); dsn != "" {
		c.DSN = dsn
	}
	if enabled := os.Getenv("PG_ENABLED"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			c.Enabled = val
		}
	}
}

func applyCacheEnvOverrides(c *CacheConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Addr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		c.Password = pw
	}
}

// Validate checks invariants that must hold before the process serves
// traffic or runs a scheduled job — an InvariantViolation-class failure if
// they don't (spec.md §7).
func (c *AppConfig) Validate() error {
	if c.Database.Enabled && c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required when database is enabled")
	}
	if c.Scheduler.ScoringWorkers <= 0 {
		return fmt.Errorf("scheduler.scoring_workers must be positive")
	}
	return nil
}
