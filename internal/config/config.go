package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig holds Redis connection settings for the session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ServiceConfig holds all configuration for the reservation service.
type ServiceConfig struct {
	Port   string
	AppEnv string

	DBConfig    DatabaseConfig
	RedisConfig RedisConfig

	KafkaBrokers []string

	JWTSecret string
	JWTTTL    time.Duration

	// SessionBackend selects where conversation sessions live: "redis" or
	// "memory".
	SessionBackend string
	SessionTTL     time.Duration

	// CollapseCityStep folds the direction choice into a single free-text
	// step for deployments serving one fixed route.
	CollapseCityStep bool
	// RequireDate makes the ride date mandatory during booking.
	RequireDate bool
}

// IsProduction reports whether the service runs in production mode.
func (c *ServiceConfig) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads configuration from environment variables with the RESERVATION
// prefix.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("RESERVATION")
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "reservations")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")

	v.SetDefault("SESSION_BACKEND", "memory")
	v.SetDefault("SESSION_TTL", "24h")

	v.SetDefault("FLOW_COLLAPSE_CITY_STEP", false)
	v.SetDefault("FLOW_REQUIRE_DATE", true)

	jwtTTL, err := time.ParseDuration(v.GetString("JWT_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	sessionTTL, err := time.ParseDuration(v.GetString("SESSION_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	cfg := &ServiceConfig{
		Port:   v.GetString("SERVICE_PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		KafkaBrokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTTTL:           jwtTTL,
		SessionBackend:   v.GetString("SESSION_BACKEND"),
		SessionTTL:       sessionTTL,
		CollapseCityStep: v.GetBool("FLOW_COLLAPSE_CITY_STEP"),
		RequireDate:      v.GetBool("FLOW_REQUIRE_DATE"),
	}

	if cfg.IsProduction() && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	return cfg, nil
}
