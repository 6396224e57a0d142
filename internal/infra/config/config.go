package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	Environment     string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string `env:"DATABASE_URL" validate:"required"`
	Timezone        string `env:"SCHEDULE_TIMEZONE" envDefault:"UTC"`
	TriggerCronSpec string `env:"CRON_SPEC_TRIGGER" envDefault:"* * * * *" validate:"required"`

	Database DatabaseConfig `envPrefix:"DATABASE_"`
	HTTP     HTTPConfig     `envPrefix:"HTTP_"`
	SMTP     SMTPConfig     `envPrefix:"SMTP_"`
	Delivery DeliveryConfig `envPrefix:"DELIVERY_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Telegram TelegramConfig `envPrefix:"TELEGRAM_"`
}

type DatabaseConfig struct {
	QueryTimeout time.Duration `env:"QUERY_TIMEOUT" envDefault:"10s"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS" envDefault:"25" validate:"gte=1"`
	AutoMigrate  bool          `env:"AUTO_MIGRATE" envDefault:"false"`
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	TriggerToken    string        `env:"TRIGGER_TOKEN"`
}

type SMTPConfig struct {
	Host          string        `env:"HOST" validate:"required"`
	Port          int           `env:"PORT" envDefault:"587" validate:"gte=1,lte=65535"`
	Username      string        `env:"USERNAME"`
	Password      string        `env:"PASSWORD"`
	From          string        `env:"FROM" validate:"required,email"`
	SendTimeout   time.Duration `env:"SEND_TIMEOUT" envDefault:"15s"`
	RatePerSecond float64       `env:"RATE_PER_SECOND" envDefault:"5" validate:"gte=0"`
	TLSPolicy     string        `env:"TLS_POLICY" envDefault:"mandatory" validate:"oneof=mandatory opportunistic none"`
}

type DeliveryConfig struct {
	Concurrency int `env:"CONCURRENCY" envDefault:"1" validate:"gte=1,lte=64"`
}

type RedisConfig struct {
	URL      string        `env:"URL"`
	ClaimTTL time.Duration `env:"CLAIM_TTL" envDefault:"2m"`
}

type TelegramConfig struct {
	Token          string `env:"TOKEN"`
	OperatorChatID int64  `env:"OPERATOR_CHAT_ID"`
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables that are already set.
	_ = godotenv.Load()
	return Parse()
}

// Parse builds the configuration from the current environment only.
func Parse() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Environment = strings.ToLower(cfg.Environment)
	cfg.SMTP.TLSPolicy = strings.ToLower(cfg.SMTP.TLSPolicy)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves SCHEDULE_TIMEZONE.
func (c *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// TelegramEnabled reports whether an operator bot should be started.
func (c *AppConfig) TelegramEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.OperatorChatID != 0
}
