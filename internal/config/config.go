package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort   string
	SQLitePath   string
	ArangoURL    string
	ArangoUser   string
	ArangoPass   string
	ArangoDB     string
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	JWTSecret    string
	SyncInterval time.Duration
	LogLevel     string
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		SQLitePath:   getEnv("SQLITE_PATH", "bloodlink.db"),
		ArangoURL:    getEnv("ARANGO_URL", "http://localhost:8529"),
		ArangoUser:   getEnv("ARANGO_USER", "root"),
		ArangoPass:   os.Getenv("ARANGO_PASS"),
		ArangoDB:     getEnv("ARANGO_DB", "bloodlink"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),
		JWTSecret:    getEnv("JWT_SECRET", "change-me"),
		SyncInterval: getEnvDuration("SYNC_INTERVAL", 2*time.Minute),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
