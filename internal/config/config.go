package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Import   ImportConfig
	Matching MatchingConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

type JWTConfig struct {
	Secret      string
	Issuer      string
	ExpiryHours int
}

type ImportConfig struct {
	MaxFileSize     int64 // bytes
	BatchInsertSize int
}

type MatchingConfig struct {
	// ScoreThreshold is the overall score a pair must exceed to count as a
	// match in analytics.
	ScoreThreshold int
	// BudgetTolerancePct stretches a client's budget bounds by this
	// percentage before a price is treated as out of budget.
	BudgetTolerancePct float64
	TopLimit           int
	WorkerCount        int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "estia"),
			Password: getEnv("DB_PASSWORD", "estia_dev_password"),
			DBName:   getEnv("DB_NAME", "estia_matchmaking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("DB_MAX_CONNS", 20),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
			Issuer:      getEnv("JWT_ISSUER", "estia-crm"),
			ExpiryHours: getIntEnv("JWT_EXPIRY_HOURS", 24),
		},
		Import: ImportConfig{
			MaxFileSize:     int64(getIntEnv("IMPORT_MAX_SIZE_MB", 50)) * 1024 * 1024,
			BatchInsertSize: getIntEnv("IMPORT_BATCH_INSERT_SIZE", 500),
		},
		Matching: MatchingConfig{
			ScoreThreshold:     getIntEnv("MATCHING_SCORE_THRESHOLD", 50),
			BudgetTolerancePct: getFloatEnv("MATCHING_BUDGET_TOLERANCE_PCT", 5),
			TopLimit:           getIntEnv("MATCHING_TOP_LIMIT", 10),
			WorkerCount:        getIntEnv("MATCHING_WORKER_COUNT", 4),
		},
	}
}

// DSN returns the Postgres connection string.
func (d *DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password +
		"@" + d.Host + ":" + d.Port +
		"/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
