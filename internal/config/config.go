package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the API server and worker
type Config struct {
	// Server Configuration
	Server ServerConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig

	// Storage Configuration
	Storage StorageConfig

	// Jobs Configuration
	Jobs JobsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        string
	APIURL      string   // Public base URL, used to build avatar_url
	WebURL      string   // Base URL of the web app, used in recovery links
	CORSOrigins []string // Allowed browser origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// StorageConfig holds upload storage configuration
type StorageConfig struct {
	Dir string // Directory avatars are written to and served from
}

// JobsConfig holds background job configuration
type JobsConfig struct {
	TokenCleanupSchedule string // Cron expression for the expired token sweep
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	port := getEnv("PORT", "3333")

	return &Config{
		Server: ServerConfig{
			Port:        port,
			APIURL:      strings.TrimRight(getEnv("APP_API_URL", "http://localhost:"+port), "/"),
			WebURL:      strings.TrimRight(getEnv("APP_WEB_URL", "http://localhost:3000"), "/"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "gobarber.sqlite"),
		},
		Redis: RedisConfig{
			Address: getEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Storage: StorageConfig{
			Dir: getEnv("STORAGE_DIR", "uploads"),
		},
		Jobs: JobsConfig{
			TokenCleanupSchedule: getEnv("TOKEN_CLEANUP_SCHEDULE", "@every 1h"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
