package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Nutrition data source
	SourceURL    string
	SourceAPIKey string
	FetchTimeout time.Duration

	// Enrichment pipeline
	VerifiedThreshold int
	MaxAttempts       int
	BackoffBase       time.Duration
	BackoffMax        time.Duration
	LeaseTimeout      time.Duration
	BatchSize         int
	Concurrency       int
	PollInterval      time.Duration

	// Server
	ServerPort int

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "fitstack"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "nutrition"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		SourceURL:    getEnv("NUTRIDB_SOURCE_URL", "https://api.nal.usda.gov/fdc"),
		SourceAPIKey: getEnv("NUTRIDB_SOURCE_API_KEY", ""),
		FetchTimeout: getEnvDuration("NUTRIDB_FETCH_TIMEOUT", 10*time.Second),

		VerifiedThreshold: getEnvInt("NUTRIDB_VERIFIED_THRESHOLD", 70),
		MaxAttempts:       getEnvInt("NUTRIDB_MAX_ATTEMPTS", 3),
		BackoffBase:       getEnvDuration("NUTRIDB_BACKOFF_BASE", 30*time.Second),
		BackoffMax:        getEnvDuration("NUTRIDB_BACKOFF_MAX", 15*time.Minute),
		LeaseTimeout:      getEnvDuration("NUTRIDB_LEASE_TIMEOUT", 10*time.Minute),
		BatchSize:         getEnvInt("NUTRIDB_BATCH_SIZE", 10),
		Concurrency:       getEnvInt("NUTRIDB_CONCURRENCY", 4),
		PollInterval:      getEnvDuration("NUTRIDB_POLL_INTERVAL", 5*time.Minute),

		ServerPort: getEnvInt("NUTRIDB_SERVER_PORT", 8484),

		LogFile:  getEnv("NUTRIDB_LOG_FILE", "/tmp/nutridb.log"),
		LogLevel: parseLogLevel(getEnv("NUTRIDB_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
