package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RateLimitEnabled bool
	// AdminAPIKey gates the operator routes; they are not mounted when empty.
	AdminAPIKey string

	Redis    RedisConfig
	Payment  PaymentConfig
	Platform PlatformConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a redis endpoint was configured. Locking and rate
// limiting degrade to no-ops without one.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type PaymentConfig struct {
	Processor           string
	StripeSecretKey     string
	StripeWebhookSecret string
}

type PlatformConfig struct {
	Name          string
	StatementName string
	Currency      string
	NodeID        int64
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "carecheckout"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "carecheckout"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 10)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 50)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
		RateLimitEnabled:  getenvBool("CHECKOUT_RATE_LIMIT_ENABLED", true),
		AdminAPIKey:       strings.TrimSpace(getenv("ADMIN_API_KEY", "")),
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       int(getenvInt64("REDIS_DB", 0)),
		},
		Payment: PaymentConfig{
			Processor:           strings.ToLower(strings.TrimSpace(getenv("PAYMENT_PROCESSOR", "stripe"))),
			StripeSecretKey:     strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			StripeWebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
		},
		Platform: PlatformConfig{
			Name:          getenv("PLATFORM_NAME", "CareCheckout"),
			StatementName: strings.TrimSpace(getenv("PLATFORM_STATEMENT_NAME", "")),
			Currency:      strings.ToLower(getenv("DEFAULT_CURRENCY", "usd")),
			NodeID:        getenvInt64("SNOWFLAKE_NODE_ID", 1),
		},
	}

	return cfg
}

// IsProduction reports whether internal error detail must be withheld from callers.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// StatementSource is the text the platform appears as when it is merchant of record.
func (c PlatformConfig) StatementSource() string {
	if c.StatementName != "" {
		return c.StatementName
	}
	return c.Name
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, value, def)
		return def
	}
	return parsed
}
