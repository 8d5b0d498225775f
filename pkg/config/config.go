package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment          string
	ServerPort           int
	MongoURI             string
	MongoDatabase        string
	RedisURL             string
	DatabaseURL          string
	JWTSecret            string
	LogLevel             string
	CORSAllowedOrigins   []string
	PurgeIntervalMinutes int
	PurgeRetentionDays   int
	RateLimitPerMinute   int
	DevUsers             string
}

// Load reads configuration from environment variables, after loading a
// local .env file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	purgeInterval, err := strconv.Atoi(getEnv("PURGE_INTERVAL_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid PURGE_INTERVAL_MINUTES: %w", err)
	}

	purgeRetention, err := strconv.Atoi(getEnv("PURGE_RETENTION_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid PURGE_RETENTION_DAYS: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	return &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		ServerPort:    port,
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "workstream"),
		RedisURL:      getEnv("REDIS_URL", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		PurgeIntervalMinutes: purgeInterval,
		PurgeRetentionDays:   purgeRetention,
		RateLimitPerMinute:   rateLimit,
		DevUsers:             getEnv("DEV_USERS", ""),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
