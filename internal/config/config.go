package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration sourced from the environment.
type Config struct {
	Port        string
	Environment string

	LogLevel string
	LogFile  string

	DatabaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret string

	AWSRegion  string
	AWSBucket  string
	CDNBaseURL string

	OTLPEndpoint string
}

// Load reads configuration from the environment, after loading .env if one
// is present. Missing optional values fall back to local-dev defaults;
// JWT_SECRET has no default and is validated by the caller.
func Load() *Config {
	// .env is optional; system environment wins
	_ = godotenv.Load()

	return &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  getEnvOrDefault("LOG_FILE", "server.log"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AWSRegion:  getEnvOrDefault("AWS_REGION", "us-east-1"),
		AWSBucket:  os.Getenv("AWS_BUCKET"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
