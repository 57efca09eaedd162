package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string

	// Backend API
	APIBaseURL  string
	NegocioID   string
	HTTPTimeout time.Duration

	// Next-available-slot probe
	ProbeLookaheadDays int
	ProbeTimeout       time.Duration

	// Calendar bounds for the reservation flow
	MaxBookingDays int

	// Session store
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionTTL    time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIBaseURL:  strings.TrimRight(getEnv("TURNOS_API_URL", "http://localhost:8000/api/v1"), "/"),
		NegocioID:   getEnv("TURNOS_NEGOCIO_ID", ""),
		HTTPTimeout: getEnvAsDuration("TURNOS_HTTP_TIMEOUT", 15*time.Second),

		ProbeLookaheadDays: getEnvAsInt("TURNOS_PROBE_LOOKAHEAD_DAYS", 7),
		ProbeTimeout:       getEnvAsDuration("TURNOS_PROBE_TIMEOUT", 5*time.Second),

		MaxBookingDays: getEnvAsInt("TURNOS_MAX_BOOKING_DAYS", 60),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
