package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/basel-ax/imagegate/internal/domain"
)

// History backends
const (
	HistoryBackendUpstream = "upstream"
	HistoryBackendPostgres = "postgres"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Config holds all configuration for the application
type Config struct {
	InfipAPIKey       string
	InfipBaseURL      string
	HTTPAddr          string
	DefaultModel      string
	DefaultImageSize  string
	UpstreamTimeout   time.Duration
	DiagnosticTimeout time.Duration
	HistoryBackend    string
	HistoryLimit      int
	ProbeSchedule     string
	GenerateRPS       float64
	GenerateBurst     int
	LogLevel          string
	DB                DBConfig
}

// Load loads the configuration from a .env file (when present) and the
// environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a variable lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	config := &Config{
		InfipAPIKey:      getenv("INFIP_API_KEY"),
		InfipBaseURL:     strings.TrimRight(stringOr(getenv("INFIP_BASE_URL"), "https://api.infip.pro"), "/"),
		HTTPAddr:         stringOr(getenv("HTTP_ADDR"), ":8080"),
		DefaultModel:     stringOr(getenv("DEFAULT_MODEL"), "img4"),
		DefaultImageSize: stringOr(getenv("DEFAULT_IMAGE_SIZE"), "1024x1024"),
		HistoryBackend:   strings.ToLower(stringOr(getenv("HISTORY_BACKEND"), HistoryBackendUpstream)),
		ProbeSchedule:    stringOr(getenv("PROBE_SCHEDULE"), "0 */5 * * * *"),
		LogLevel:         stringOr(getenv("LOG_LEVEL"), "info"),
	}

	if timeout, err := strconv.Atoi(getenv("UPSTREAM_TIMEOUT")); err == nil {
		config.UpstreamTimeout = time.Duration(timeout) * time.Second
	} else {
		config.UpstreamTimeout = 120 * time.Second // default value
	}

	if timeout, err := strconv.Atoi(getenv("DIAGNOSTIC_TIMEOUT")); err == nil {
		config.DiagnosticTimeout = time.Duration(timeout) * time.Second
	} else {
		config.DiagnosticTimeout = 10 * time.Second // default value
	}

	if limit, err := strconv.Atoi(getenv("HISTORY_LIMIT")); err == nil {
		config.HistoryLimit = limit
	} else {
		config.HistoryLimit = 100 // default value
	}

	if rps, err := strconv.ParseFloat(getenv("GENERATE_RPS"), 64); err == nil {
		config.GenerateRPS = rps
	} else {
		config.GenerateRPS = 1 // default value
	}

	if burst, err := strconv.Atoi(getenv("GENERATE_BURST")); err == nil {
		config.GenerateBurst = burst
	} else {
		config.GenerateBurst = 3 // default value
	}

	// Load database configuration
	dbConfig := DBConfig{
		Host:     getenv("DB_HOST"),
		User:     getenv("DB_USER"),
		Password: getenv("DB_PASSWORD"),
		Database: getenv("DB_NAME"),
		SSLMode:  stringOr(getenv("DB_SSL_MODE"), "disable"),
	}

	if port, err := strconv.Atoi(getenv("DB_PORT")); err == nil {
		dbConfig.Port = port
	} else {
		dbConfig.Port = 5432 // default PostgreSQL port
	}

	if maxOpenConns, err := strconv.Atoi(getenv("DB_MAX_OPEN_CONNS")); err == nil {
		dbConfig.MaxOpenConns = maxOpenConns
	} else {
		dbConfig.MaxOpenConns = 10 // default value
	}

	if maxIdleConns, err := strconv.Atoi(getenv("DB_MAX_IDLE_CONNS")); err == nil {
		dbConfig.MaxIdleConns = maxIdleConns
	} else {
		dbConfig.MaxIdleConns = 5 // default value
	}

	if connMaxLifetime, err := strconv.Atoi(getenv("DB_CONN_MAX_LIFETIME")); err == nil {
		dbConfig.ConnMaxLifetime = time.Duration(connMaxLifetime) * time.Second
	} else {
		dbConfig.ConnMaxLifetime = 5 * time.Minute // default value
	}

	config.DB = dbConfig

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.InfipAPIKey == "" {
		return fmt.Errorf("INFIP_API_KEY is required")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	if c.DiagnosticTimeout <= 0 {
		return fmt.Errorf("DIAGNOSTIC_TIMEOUT must be positive")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive")
	}
	if !domain.ImageSize(c.DefaultImageSize).Valid() {
		return fmt.Errorf("DEFAULT_IMAGE_SIZE %q is not one of %v", c.DefaultImageSize, domain.ImageSizes)
	}

	switch c.HistoryBackend {
	case HistoryBackendUpstream:
	case HistoryBackendPostgres:
		// Database settings only matter when history is read from Postgres
		if c.DB.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.DB.User == "" {
			return fmt.Errorf("DB_USER is required")
		}
		if c.DB.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
		if c.DB.Database == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	default:
		return fmt.Errorf("unknown HISTORY_BACKEND %q", c.HistoryBackend)
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func stringOr(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}
