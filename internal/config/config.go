package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// ClinicID keys the clinic configuration (hours, catalogue, team) in Redis.
	ClinicID string

	AdminJWTSecret     string
	AdminJWTIssuer     string
	CORSAllowedOrigins []string

	PublicRateLimitRPS   float64
	PublicRateLimitBurst int

	// AvailabilityMaxRangeDays caps the range endpoint window.
	AvailabilityMaxRangeDays int
	// AvailabilityWindowDays is the rolling window shown by the booking client.
	AvailabilityWindowDays int
	// AvailabilityDebounce delays refetches after wizard input changes.
	AvailabilityDebounce time.Duration

	// Email notifications: "sendgrid", "ses" or "stub".
	EmailProvider    string
	SendGridAPIKey   string
	EmailFromAddress string
	EmailFromName    string

	// SESConfigurationSet routes SES delivery events when set.
	SESConfigurationSet string

	AWSRegion           string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		ClinicID: getEnv("CLINIC_ID", "default"),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		AdminJWTIssuer:     getEnv("ADMIN_JWT_ISSUER", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		PublicRateLimitRPS:   getEnvAsFloat("PUBLIC_RATE_LIMIT_RPS", 10),
		PublicRateLimitBurst: getEnvAsInt("PUBLIC_RATE_LIMIT_BURST", 20),

		AvailabilityMaxRangeDays: getEnvAsInt("AVAILABILITY_MAX_RANGE_DAYS", 62),
		AvailabilityWindowDays:   getEnvAsInt("AVAILABILITY_WINDOW_DAYS", 30),
		AvailabilityDebounce:     getEnvAsDuration("AVAILABILITY_DEBOUNCE", 300*time.Millisecond),

		EmailProvider:    strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Aesthetics Clinic"),

		SESConfigurationSet: getEnv("SES_CONFIGURATION_SET", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
