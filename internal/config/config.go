package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/headline-goat/oconv/internal/adwords"
)

type Config struct {
	// Endpoint is the base URL the services live under.
	Endpoint   string
	APIVersion string
	Timeout    time.Duration

	DBPath   string
	LogLevel slog.Level

	// Sandbox
	Port int
}

// Load reads .env (if present) and then the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		Endpoint:   getEnv("OCONV_ENDPOINT", "http://localhost:8080"),
		APIVersion: getEnv("OCONV_API_VERSION", adwords.DefaultVersion),
		Timeout:    time.Duration(getEnvInt("OCONV_TIMEOUT_SECONDS", 30)) * time.Second,
		DBPath:     getEnv("OCONV_DB_PATH", "./oconv.db"),
		LogLevel:   ParseLevel(os.Getenv("OCONV_LOG_LEVEL")),
		Port:       getEnvInt("OCONV_PORT", 8080),
	}
}

// ParseLevel maps debug/warn/error to slog levels. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEnv returns environment variable or default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
