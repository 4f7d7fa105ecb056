package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth
	JWTSecret   string
	TokenExpiry time.Duration

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Telegram
	Telegram TelegramConfig

	// Reminder engine
	ReminderInterval time.Duration

	// S3 Storage
	S3 S3Config
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken      string
	NotifyChatID  string
	GroupChatID   string
	UseProxy      bool
	ProxyURL      string
	PollTimeout   time.Duration
	Disabled      bool
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		TokenExpiry: getDuration("TOKEN_EXPIRY", 24*time.Hour),
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:         getEnv("ENV", "development"),
		Telegram: TelegramConfig{
			BotToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
			NotifyChatID: getEnv("TELEGRAM_NOTIFY_CHAT_ID", ""),
			GroupChatID:  getEnv("TELEGRAM_GROUP_CHAT_ID", ""),
			UseProxy:     getBool("USE_PROXY", false),
			ProxyURL:     strings.TrimSpace(getEnv("TELEGRAM_PROXY_URL", "")),
			PollTimeout:  getDuration("TELEGRAM_POLL_TIMEOUT", 30*time.Second),
		},
		ReminderInterval: getDuration("REMINDER_INTERVAL", 1*time.Hour),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", "sandogh-receipts"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
	}
	cfg.Telegram.Disabled = cfg.Telegram.BotToken == ""

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// EffectiveProxyURL returns the Telegram proxy URL, or empty when the proxy
// is disabled. A localhost proxy is refused in production.
func (c *Config) EffectiveProxyURL() string {
	if !c.Telegram.UseProxy || c.Telegram.ProxyURL == "" {
		return ""
	}
	if c.IsProduction() &&
		(strings.Contains(c.Telegram.ProxyURL, "localhost") || strings.Contains(c.Telegram.ProxyURL, "127.0.0.1")) {
		return ""
	}
	return c.Telegram.ProxyURL
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
