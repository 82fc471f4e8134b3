package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment   string `mapstructure:"ENV"`
	HTTPAddr      string `mapstructure:"HTTP_ADDR"`
	DBDSN         string `mapstructure:"DB_DSN"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`
	TrustProxy    bool   `mapstructure:"TRUST_PROXY"`

	Mail     MailConfig
	Telegram TelegramConfig
	Cache    CacheConfig
	Limits   RateLimitConfig

	NotifyTimeout time.Duration `mapstructure:"NOTIFY_TIMEOUT"`
}

// MailConfig параметры SMTP-транспорта
type MailConfig struct {
	Host       string `mapstructure:"SMTP_HOST"`
	Port       int    `mapstructure:"SMTP_PORT"`
	Username   string `mapstructure:"SMTP_USERNAME"`
	Password   string `mapstructure:"SMTP_PASSWORD"`
	From       string `mapstructure:"MAIL_FROM"`
	CoachEmail string `mapstructure:"COACH_EMAIL"`
}

// Enabled возвращает true если почта настроена
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.From != ""
}

// TelegramConfig параметры уведомлений коуча в Telegram
type TelegramConfig struct {
	Token       string `mapstructure:"TELEGRAM_TOKEN"`
	CoachChatID int64  `mapstructure:"TELEGRAM_COACH_CHAT_ID"`
}

func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.CoachChatID != 0
}

type CacheConfig struct {
	RedisURL        string        `mapstructure:"REDIS_URL"`
	AvailabilityTTL time.Duration `mapstructure:"AVAILABILITY_CACHE_TTL"`
}

// RateLimitConfig параметры ограничения попыток входа админа
type RateLimitConfig struct {
	MaxAttempts   int           `mapstructure:"RATE_LIMIT_MAX_ATTEMPTS"`
	Window        time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
	Lockout       time.Duration `mapstructure:"RATE_LIMIT_LOCKOUT"`
	SweepInterval time.Duration `mapstructure:"RATE_LIMIT_SWEEP_INTERVAL"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv собирает конфиг из переменных окружения без чтения .env
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment:   getEnvOrDefault("ENV", "development"),
		HTTPAddr:      getEnvOrDefault("HTTP_ADDR", ":8080"),
		DBDSN:         os.Getenv("DB_DSN"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		PublicBaseURL: strings.TrimRight(getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		TrustProxy:    getEnvAsBool("TRUST_PROXY"),
		Mail: MailConfig{
			Host:       os.Getenv("SMTP_HOST"),
			Port:       getEnvAsIntOrDefault("SMTP_PORT", 587),
			Username:   os.Getenv("SMTP_USERNAME"),
			Password:   os.Getenv("SMTP_PASSWORD"),
			From:       os.Getenv("MAIL_FROM"),
			CoachEmail: os.Getenv("COACH_EMAIL"),
		},
		Telegram: TelegramConfig{
			Token: os.Getenv("TELEGRAM_TOKEN"),
		},
		Cache: CacheConfig{
			RedisURL: os.Getenv("REDIS_URL"),
		},
	}

	var err error
	if raw := os.Getenv("TELEGRAM_COACH_CHAT_ID"); raw != "" {
		cfg.Telegram.CoachChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_COACH_CHAT_ID: %w", err)
		}
	}

	durations := []struct {
		key   string
		def   time.Duration
		field *time.Duration
	}{
		{"AVAILABILITY_CACHE_TTL", time.Minute, &cfg.Cache.AvailabilityTTL},
		{"RATE_LIMIT_WINDOW", 15 * time.Minute, &cfg.Limits.Window},
		{"RATE_LIMIT_LOCKOUT", 30 * time.Minute, &cfg.Limits.Lockout},
		{"RATE_LIMIT_SWEEP_INTERVAL", 10 * time.Minute, &cfg.Limits.SweepInterval},
		{"NOTIFY_TIMEOUT", 20 * time.Second, &cfg.NotifyTimeout},
	}
	for _, d := range durations {
		*d.field, err = getEnvAsDurationOrDefault(d.key, d.def)
		if err != nil {
			return nil, err
		}
		if *d.field <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %s", d.key, *d.field)
		}
	}
	cfg.Limits.MaxAttempts = getEnvAsIntOrDefault("RATE_LIMIT_MAX_ATTEMPTS", 5)

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD is required but not set")
	}
	if cfg.Limits.MaxAttempts < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX_ATTEMPTS must be positive, got %d", cfg.Limits.MaxAttempts)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Environment variable %s is not an integer, using default value", key)
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvAsBool(key string) bool {
	value := strings.ToLower(os.Getenv(key))
	return value == "true" || value == "1"
}
