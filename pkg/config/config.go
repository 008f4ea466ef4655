package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. Environment variables
// are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Validation thresholds
	Validation ValidationConfig

	// Scheduler
	Scheduler SchedulerConfig

	// API
	API APIConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration. The database is optional:
// with an empty URL the service runs stateless (no stored runs, no scheduled
// loads).
type DatabaseConfig struct {
	URL string

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database was configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ValidationConfig is the environment surface for the engine thresholds.
// Defaults match the documented per-validator defaults.
type ValidationConfig struct {
	BaseCurrency string

	PriceJumpWarnPct  float64
	PriceJumpErrorPct float64

	ReconciliationAbsTolerance float64
	ReconciliationRelTolerance float64

	TradePriceDeviationWarnPct  float64
	TradePriceDeviationErrorPct float64

	FXTolerancePct float64

	// AllowedStaticTransitions entries use the form "field:old>new".
	AllowedStaticTransitions []string

	// EnabledValidators is a comma-separated allowlist; empty means all.
	EnabledValidators []string
}

// SchedulerConfig holds the cron settings for the daily validation job.
type SchedulerConfig struct {
	DailyCron    string
	LookbackDays int
}

// APIConfig holds HTTP server tuning.
type APIConfig struct {
	RunRateLimit float64 // validation runs per second allowed through POST /api/runs
	RunRateBurst int
}

// Load reads configuration from the environment, consulting a .env file when
// one is present.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Validation: ValidationConfig{
			BaseCurrency:                getEnv("BASE_CURRENCY", "USD"),
			PriceJumpWarnPct:            getEnvAsFloat("PRICE_JUMP_WARN_PCT", 0.20),
			PriceJumpErrorPct:           getEnvAsFloat("PRICE_JUMP_ERROR_PCT", 0.50),
			ReconciliationAbsTolerance:  getEnvAsFloat("RECONCILIATION_ABS_TOLERANCE", 1e-6),
			ReconciliationRelTolerance:  getEnvAsFloat("RECONCILIATION_REL_TOLERANCE", 1e-4),
			TradePriceDeviationWarnPct:  getEnvAsFloat("TRADE_PRICE_DEVIATION_WARN_PCT", 0.05),
			TradePriceDeviationErrorPct: getEnvAsFloat("TRADE_PRICE_DEVIATION_ERROR_PCT", 0.15),
			FXTolerancePct:              getEnvAsFloat("FX_TOLERANCE_PCT", 0.001),
			AllowedStaticTransitions:    getEnvAsList("ALLOWED_STATIC_TRANSITIONS"),
			EnabledValidators:           getEnvAsList("ENABLED_VALIDATORS"),
		},

		Scheduler: SchedulerConfig{
			DailyCron:    getEnv("SCHEDULER_DAILY_CRON", "0 30 18 * * MON-FRI"),
			LookbackDays: getEnvAsInt("SCHEDULER_LOOKBACK_DAYS", 7),
		},

		API: APIConfig{
			RunRateLimit: getEnvAsFloat("API_RUN_RATE_LIMIT", 1),
			RunRateBurst: getEnvAsInt("API_RUN_RATE_BURST", 3),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// validate checks cross-field constraints that getEnv defaults cannot.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	v := c.Validation
	if v.PriceJumpWarnPct <= 0 || v.PriceJumpErrorPct <= 0 {
		return fmt.Errorf("price jump thresholds must be positive")
	}
	if v.PriceJumpErrorPct < v.PriceJumpWarnPct {
		return fmt.Errorf("PRICE_JUMP_ERROR_PCT must be >= PRICE_JUMP_WARN_PCT")
	}
	if v.TradePriceDeviationErrorPct < v.TradePriceDeviationWarnPct {
		return fmt.Errorf("TRADE_PRICE_DEVIATION_ERROR_PCT must be >= TRADE_PRICE_DEVIATION_WARN_PCT")
	}
	return nil
}

// loadEnvFile tries to load .env from the working directory or next to the
// executable.
func loadEnvFile() {
	paths := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
