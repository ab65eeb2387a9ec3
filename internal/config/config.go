package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Environments recognised by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// ErrMissingJWTSecret is returned by Load when JWT_SECRET is not set.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Config holds the process configuration.
type Config struct {
	AppPort         string
	AppEnv          string
	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
	DBDriver        string
	DatabaseDSN     string
	RabbitMQURL     string
}

// IsTest reports whether the process runs under APP_ENV=test.
func (c Config) IsTest() bool { return c.AppEnv == EnvTest }

// IsProduction reports whether the process runs under APP_ENV=production.
func (c Config) IsProduction() bool { return c.AppEnv == EnvProduction }

// Load reads the configuration from the environment and, when CONFIG_FILE
// names one, from a config file. Environment variables win over the file.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("JWT_ISSUER", "users-api")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "users.db")
	v.SetDefault("RABBITMQ_URL", "")
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := Config{
		AppPort:         v.GetString("APP_PORT"),
		AppEnv:          v.GetString("APP_ENV"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTIssuer:       v.GetString("JWT_ISSUER"),
		AccessTokenTTL:  v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL: v.GetDuration("REFRESH_TOKEN_TTL"),
		BcryptCost:      v.GetInt("BCRYPT_COST"),
		DBDriver:        v.GetString("DB_DRIVER"),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite", "memory":
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}
