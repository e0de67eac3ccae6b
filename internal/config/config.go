// Package config содержит логику чтения конфигурации сервиса магазина.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса магазина.
type Config struct {
	RunAddress           string `env:"RUN_ADDRESS"`
	DatabaseURI          string `env:"DATABASE_URI"`
	NotifyWebhookAddress string `env:"NOTIFY_WEBHOOK_ADDRESS"`
	AuthSecret           string `env:"AUTH_SECRET"`
	AdminToken           string `env:"ADMIN_TOKEN"`
	DeliveryFee          int64  `env:"DELIVERY_FEE"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envWebhookAddress := cfg.NotifyWebhookAddress
	envDeliveryFee := cfg.DeliveryFee
	// Для числового поля нулевое значение легально, поэтому проверяем само
	// наличие переменной окружения.
	_, envDeliveryFeeSet := os.LookupEnv("DELIVERY_FEE")

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.NotifyWebhookAddress, "r", "", "notification webhook address")
	flag.Int64Var(&cfg.DeliveryFee, "f", 1500, "flat delivery fee in cents")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envWebhookAddress != "" {
		cfg.NotifyWebhookAddress = envWebhookAddress
	}
	if envDeliveryFeeSet {
		cfg.DeliveryFee = envDeliveryFee
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "shopcore-secret"
	}

	return cfg, nil
}
