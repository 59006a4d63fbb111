// Package config provides configuration loading for the Gaming Hub portal.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	SMTP   SMTPConfig   `mapstructure:"smtp"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Site   SiteConfig   `mapstructure:"site"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"` // dev, staging, prod
}

// Addr returns the listen address string.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MongoConfig holds MongoDB configuration.
type MongoConfig struct {
	URI      string `mapstructure:"uri" validate:"required"`
	Database string `mapstructure:"database"`
}

// SMTPConfig holds outbound mail transport configuration.
type SMTPConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	From     string `mapstructure:"from"`
}

// Addr returns the SMTP server address string.
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	SessionSecret string        `mapstructure:"session_secret" validate:"required"`
	AdminPassword string        `mapstructure:"admin_password" validate:"required"`
	CodeTTL       time.Duration `mapstructure:"code_ttl"`
}

// SiteConfig holds values injected into rendered pages.
type SiteConfig struct {
	Name       string `mapstructure:"name"`
	ContactURL string `mapstructure:"contact_url"`
}

// Load reads configuration from files and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/gaminghub")

	// Enable environment variable override
	v.SetEnvPrefix("GHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Explicitly bind secret-bearing environment variables (nested struct issue with viper)
	v.BindEnv("mongo.uri", "GHUB_MONGO_URI")
	v.BindEnv("smtp.host", "GHUB_SMTP_HOST")
	v.BindEnv("smtp.username", "GHUB_SMTP_USERNAME")
	v.BindEnv("smtp.password", "GHUB_SMTP_PASSWORD")
	v.BindEnv("auth.session_secret", "GHUB_AUTH_SESSION_SECRET")
	v.BindEnv("auth.admin_password", "GHUB_AUTH_ADMIN_PASSWORD")
	v.BindEnv("site.contact_url", "GHUB_SITE_CONTACT_URL")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "dev")

	// Mongo defaults
	v.SetDefault("mongo.database", "gaminghub")

	// SMTP defaults
	v.SetDefault("smtp.port", 587)

	// Auth defaults
	v.SetDefault("auth.code_ttl", "5m")

	// Site defaults
	v.SetDefault("site.name", "Gaming Hub")
}
