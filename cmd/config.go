package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	GeoBackendMemory = "memory"
	GeoBackendRedis  = "redis"
)

type Config struct {
	HTTPPort string

	Storage    string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	GeoBackend    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// An empty RabbitMQURL sends notifications to the log.
	RabbitMQURL    string
	NotifyExchange string

	JWTSecret string
	JWTTTL    time.Duration

	DriverSweepSchedule   string
	DriverStaleAfter      time.Duration
	AutoAssignRadiusM     float64
	OrderDispatchEnabled  bool
	OrderDispatchSchedule string
	OrderDispatchBatch    int

	NewRelicEnabled    bool
	NewRelicAppName    string
	NewRelicLicenseKey string

	ExternalCallTimeout time.Duration
}

// LoadConfig reads .env when present, then the environment.
func LoadConfig() Config {
	_ = godotenv.Load(".env")

	return Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		Storage:    getEnv("STORAGE", StoragePostgres),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "delivery"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		GeoBackend:    getEnv("GEO_BACKEND", GeoBackendMemory),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		NotifyExchange: getEnv("NOTIFY_EXCHANGE", "delivery.events"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getDurationEnv("JWT_TTL", 24*time.Hour),

		DriverSweepSchedule:   getEnv("DRIVER_SWEEP_SCHEDULE", "@every 30s"),
		DriverStaleAfter:      getDurationEnv("DRIVER_STALE_AFTER", 60*time.Second),
		AutoAssignRadiusM:     getFloatEnv("AUTO_ASSIGN_RADIUS_METERS", 15000),
		OrderDispatchEnabled:  getBoolEnv("ORDER_DISPATCH_ENABLED", false),
		OrderDispatchSchedule: getEnv("ORDER_DISPATCH_SCHEDULE", "@every 15s"),
		OrderDispatchBatch:    getIntEnv("ORDER_DISPATCH_BATCH", 50),

		NewRelicEnabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		NewRelicAppName:    getEnv("NEW_RELIC_APP_NAME", "delivery-backend"),
		NewRelicLicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),

		ExternalCallTimeout: getDurationEnv("EXTERNAL_CALL_TIMEOUT", 5*time.Second),
	}
}

func (c Config) Validate() error {
	switch c.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}
	switch c.GeoBackend {
	case GeoBackendMemory, GeoBackendRedis:
	default:
		return fmt.Errorf("GEO_BACKEND must be %q or %q, got %q", GeoBackendMemory, GeoBackendRedis, c.GeoBackend)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DriverStaleAfter <= 0 {
		return fmt.Errorf("DRIVER_STALE_AFTER must be positive")
	}
	return nil
}

// DSN is the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
