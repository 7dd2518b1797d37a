package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Backend names accepted by DATA_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

const envDevelopment = "development"

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	Backend      string
	DatabaseURL  string
	SQLiteDBPath string
}

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port         string
	Env          string
	Store        StoreConfig
	JWTSecret    string
	JWTIssuer    string
	JWTTTL       time.Duration
	CORSOrigins  []string
	LogLevel     zerolog.Level
	AMQPURL      string
	AMQPExchange string
}

// Load reads configuration from the environment. The returned error lists every
// invalid or missing value at once.
func Load() (Config, error) {
	store, storeErr := LoadStore()
	cfg := Config{
		Port:         fallback(os.Getenv("PORT"), "8080"),
		Env:          strings.ToLower(fallback(os.Getenv("APP_ENV"), "production")),
		Store:        store,
		JWTSecret:    strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:    fallback(os.Getenv("JWT_ISSUER"), "expense-api"),
		CORSOrigins:  parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		AMQPURL:      strings.TrimSpace(os.Getenv("AMQP_URL")),
		AMQPExchange: fallback(os.Getenv("AMQP_EXCHANGE"), "expenses"),
	}

	var errs []error
	if storeErr != nil {
		errs = append(errs, storeErr)
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "1440")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		errs = append(errs, fmt.Errorf("JWT_TTL_MINUTES must be a positive integer, got %q", minutes))
	}

	level, err := zerolog.ParseLevel(strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), "info")))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	cfg.LogLevel = level

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %q", cfg.Port))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadStore reads only the persistence settings. Tools that never issue tokens use it
// instead of Load.
func LoadStore() (StoreConfig, error) {
	cfg := StoreConfig{
		Backend:      strings.ToLower(fallback(os.Getenv("DATA_BACKEND"), BackendPostgres)),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLiteDBPath: fallback(os.Getenv("SQLITE_DB_PATH"), "./data/expenses.db"),
	}
	switch cfg.Backend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return cfg, errors.New("DATABASE_URL is required for the postgres backend")
		}
	case BackendSQLite, BackendMemory:
	default:
		return cfg, fmt.Errorf("DATA_BACKEND must be one of postgres, sqlite, memory, got %q", cfg.Backend)
	}
	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// IsDevelopment reports whether error responses may carry debug detail.
func (c Config) IsDevelopment() bool {
	return c.Env == envDevelopment
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
