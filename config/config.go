/*
Package config loads server configuration from the environment.

PURPOSE:
  Centralizes every tunable of the server binary. A .env file is loaded
  when present (development convenience); real environments set variables
  directly.

VARIABLES:
  PORT             HTTP port (default 8080)
  ENV              "development" or "production" (default development)
  LOG_LEVEL        zerolog level name (default info)
  JOURNAL          "memory" or "sqlite" (default memory)
  SQLITE_PATH      SQLite path when JOURNAL=sqlite (default ":memory:")
  ORGANIZER_ID     Actor id recorded on issues/recharges (default ORG001)
  ALLOWED_ORIGINS  Comma-separated CORS origins
*/
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	Journal    string
	SQLitePath string

	OrganizerID    string
	AllowedOrigins []string
}

// Load reads configuration from the environment, loading .env first if
// one exists.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Journal:    getEnv("JOURNAL", "memory"),
		SQLitePath: getEnv("SQLITE_PATH", ":memory:"),

		OrganizerID: getEnv("ORGANIZER_ID", "ORG001"),
		AllowedOrigins: strings.Split(
			getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
