package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pawhaven/service-booking/internal/pkg/database"
)

// JWTConfig holds token verification settings shared with the identity service.
type JWTConfig struct {
	Secret string
}

// KafkaConfig holds event broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	TimeZone    string
	CORSOrigins []string
	DBConfig    database.PostgresConfig
	JWTConfig   JWTConfig
	KafkaConfig KafkaConfig
}

// Load reads configuration from PAWHAVEN_-prefixed environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("PAWHAVEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVICE_PORT", "8083")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "pawhaven_booking")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "pawhaven.")

	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		if v.GetString("APP_ENV") != "development" {
			return nil, fmt.Errorf("PAWHAVEN_JWT_SECRET is required outside development")
		}
		secret = "dev-only-secret"
	}

	var origins []string
	if raw := v.GetString("CORS_ORIGINS"); raw != "" {
		origins = strings.Split(raw, ",")
	}

	return &ServiceConfig{
		Port:        ":" + strings.TrimPrefix(v.GetString("SERVICE_PORT"), ":"),
		AppEnv:      v.GetString("APP_ENV"),
		TimeZone:    v.GetString("TIMEZONE"),
		CORSOrigins: origins,
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTConfig: JWTConfig{Secret: secret},
		KafkaConfig: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
	}, nil
}
