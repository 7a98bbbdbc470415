package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env  string
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// AdminAPIKey guards writes to the shared category catalog. Empty disables them.
	AdminAPIKey string

	// Calendar used for month windows, day buckets and inclusive end dates.
	Location *time.Location

	// Ledger events. Publishing is disabled when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string

	// Receipt extraction (any OpenAI-compatible vision endpoint).
	ReceiptAPIKey    string
	ReceiptBaseURL   string
	ReceiptModel     string
	ReceiptMaxImages int
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "dompet"),
		DBPassword: getEnv("DB_PASSWORD", "dompet"),
		DBName:     getEnv("DB_NAME", "dompet"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:   getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "dompet.ledger"),

		ReceiptAPIKey:  getEnv("RECEIPT_API_KEY", ""),
		ReceiptBaseURL: getEnv("RECEIPT_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		ReceiptModel:   getEnv("RECEIPT_MODEL", "gemini-2.5-flash"),
	}

	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	tz := getEnv("APP_TIMEZONE", "Asia/Jakarta")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Warning: unknown APP_TIMEZONE '%s', falling back to UTC\n", tz)
		loc = time.UTC
	}
	config.Location = loc

	maxImages, err := strconv.Atoi(getEnv("RECEIPT_MAX_IMAGES", "5"))
	if err != nil || maxImages < 1 {
		maxImages = 5
	}
	config.ReceiptMaxImages = maxImages

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the active configuration. Tests use it to avoid reading the environment.
func Set(c *Config) {
	appConfig = c
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
