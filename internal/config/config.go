package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBHost     string
	DBName     string
	DBUser     string
	DBPassword string
	DBPort     string

	SteamAPIKey      string
	EpicClientID     string
	EpicClientSecret string

	Port string

	// Collector settings
	CollectInterval time.Duration // wall-clock delay between cycles
	TopGames        int           // how many most-played games to track
	RequestDelay    time.Duration // pause between per-entity API calls
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBName:     getEnv("DB_NAME", "steam"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBPort:     getEnv("DB_PORT", "5432"),

		SteamAPIKey:      getEnv("STEAM_API_KEY", ""),
		EpicClientID:     getEnv("EPIC_CLIENT_ID", ""),
		EpicClientSecret: getEnv("EPIC_CLIENT_SECRET", ""),

		Port: getEnv("PORT", "8051"),

		CollectInterval: getEnvDuration("COLLECT_INTERVAL", time.Hour),
		TopGames:        getEnvInt("TOP_GAMES", 100),
		RequestDelay:    getEnvDuration("REQUEST_DELAY", 1200*time.Millisecond),
	}
}

// DSN builds the PostgreSQL connection string for GORM.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
