package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	StorageDriver      string
	DatabaseURL        string
	MigrationsPath     string
	JWTSecret          string
	JWTTTL             time.Duration
	BcryptCost         int
	StrictOfferUpdate  bool
	LogLevel           string
	LogFormat          string
	Port               string
	PrometheusPort     string
	TelegramToken      string
	CORSAllowedOrigins []string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the current process environment.
// Every problem found is reported, not only the first one.
func FromEnv() (*Config, error) {
	cfg := &Config{
		StorageDriver:  getEnvOrDefault("STORAGE_DRIVER", StoragePostgres),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
		Port:           getEnvOrDefault("PORT", "8080"),
		PrometheusPort: getEnvOrDefault("PROMETHEUS_PORT", "9090"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
	}

	cfg.CORSAllowedOrigins = splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	var result *multierror.Error

	ttl, err := time.ParseDuration(getEnvOrDefault("JWT_TTL", "24h"))
	if err != nil || ttl <= 0 {
		result = multierror.Append(result, fmt.Errorf("JWT_TTL must be a positive duration"))
	}
	cfg.JWTTTL = ttl

	cost, err := strconv.Atoi(getEnvOrDefault("BCRYPT_COST", "10"))
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("BCRYPT_COST must be an integer: %w", err))
	}
	cfg.BcryptCost = cost

	strict, err := strconv.ParseBool(getEnvOrDefault("LEDGER_STRICT_OFFER_UPDATE", "false"))
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("LEDGER_STRICT_OFFER_UPDATE must be a boolean: %w", err))
	}
	cfg.StrictOfferUpdate = strict

	// Required environment variables
	if cfg.JWTSecret == "" {
		result = multierror.Append(result, fmt.Errorf("JWT_SECRET environment variable is required"))
	}

	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			result = multierror.Append(result, fmt.Errorf("DATABASE_URL environment variable is required"))
		}
	case StorageMemory:
	default:
		result = multierror.Append(result, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver))
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		result = multierror.Append(result, fmt.Errorf("LOG_FORMAT must be text or json"))
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList splits a comma-separated value, dropping blank entries
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
