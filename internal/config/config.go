// Package config содержит логику чтения конфигурации сервиса учёта ремонтных заказов.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backend — вид хранилища данных.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendREST     Backend = "rest"
	BackendMemory   Backend = "memory"
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress    string        `env:"RUN_ADDRESS"`
	DatabaseURI   string        `env:"DATABASE_URI"`
	StoreURL      string        `env:"STORE_URL"`
	StoreAPIKey   string        `env:"STORE_API_KEY"`
	AuthSecret    string        `env:"AUTH_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`

	// EphemeralSecret выставляется, если секрет сгенерирован при запуске.
	EphemeralSecret bool
}

// Backend возвращает хранилище, выбранное конфигурацией: Postgres, затем
// REST-бэкенд, иначе память.
func (c *Config) Backend() Backend {
	switch {
	case c.DatabaseURI != "":
		return BackendPostgres
	case c.StoreURL != "":
		return BackendREST
	default:
		return BackendMemory
	}
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и
// переменных окружения. Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envStoreURL := cfg.StoreURL
	envAuthSecret := cfg.AuthSecret
	envRedisAddr := cfg.RedisAddr

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.StoreURL, "s", "", "REST store base URL")
	flag.StringVar(&cfg.AuthSecret, "k", "", "secret for signing session tokens")
	flag.StringVar(&cfg.RedisAddr, "r", "", "redis address for sessions")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envStoreURL != "" {
		cfg.StoreURL = envStoreURL
	}
	if envAuthSecret != "" {
		cfg.AuthSecret = envAuthSecret
	}
	if envRedisAddr != "" {
		cfg.RedisAddr = envRedisAddr
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}

	if cfg.AuthSecret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate auth secret: %w", err)
		}
		cfg.AuthSecret = hex.EncodeToString(secret)
		cfg.EphemeralSecret = true
	}

	return cfg, nil
}
