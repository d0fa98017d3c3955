package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
	Auth      AuthConfig
	Firebase  FirebaseConfig
	Stripe    StripeConfig
	RabbitMQ  RabbitMQConfig
	Fare      FareConfig
	Wallet    WalletConfig
	Retry     RetryConfig
	Proximity ProximityConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	LogLevel       string
}

// StoreConfig selects the transactional store backend: "postgres" or "memory".
type StoreConfig struct {
	Backend string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Driver          string // "postgres" (lib/pq) or "pgx"
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	AutoMigrate     bool
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// AuthConfig selects how bearer tokens are verified: "firebase" or "jwt".
type AuthConfig struct {
	Mode      string
	JWTSecret string
}

// FirebaseConfig holds Firebase Admin SDK settings, used for auth and push.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	PushEnabled     bool
}

// StripeConfig holds payment gateway settings.
type StripeConfig struct {
	SecretKey string
}

// RabbitMQConfig holds notification broker settings. Empty URL disables it.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// FareConfig holds fare rates in cents.
type FareConfig struct {
	BaseCents  int64
	PerKmCents int64
	MinCents   int64
	MaxCents   int64
}

// WalletConfig holds top-up settings.
type WalletConfig struct {
	MinTopUpCents int64
	Currency      string
}

// RetryConfig bounds transaction retries on serialization conflicts.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// ProximityConfig holds nearby-driver notification settings.
type ProximityConfig struct {
	MaxDrivers int
}

// Load loads configuration from environment variables, reading a .env file
// first when one exists.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", nil),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", "postgres"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "ride_hailing"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			AutoMigrate:     getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "ride-hailing-wallet"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Auth: AuthConfig{
			Mode:      getEnv("AUTH_MODE", "firebase"),
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			PushEnabled:     getBoolEnv("FIREBASE_PUSH_ENABLED", false),
		},
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "notifications"),
		},
		Fare: FareConfig{
			BaseCents:  getInt64Env("FARE_BASE_CENTS", 300),
			PerKmCents: getInt64Env("FARE_PER_KM_CENTS", 150),
			MinCents:   getInt64Env("FARE_MIN_CENTS", 500),
			MaxCents:   getInt64Env("FARE_MAX_CENTS", 20000),
		},
		Wallet: WalletConfig{
			MinTopUpCents: getInt64Env("WALLET_MIN_TOPUP_CENTS", 2000),
			Currency:      getEnv("WALLET_CURRENCY", "myr"),
		},
		Retry: RetryConfig{
			MaxAttempts: getIntEnv("TX_MAX_ATTEMPTS", 5),
			BaseDelay:   getDurationEnv("TX_RETRY_BASE_DELAY", 10*time.Millisecond),
			MaxDelay:    getDurationEnv("TX_RETRY_MAX_DELAY", 200*time.Millisecond),
		},
		Proximity: ProximityConfig{
			MaxDrivers: getIntEnv("PROXIMITY_MAX_DRIVERS", 20),
		},
	}
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

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
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

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
