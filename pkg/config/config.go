package config

import "fmt"

// Config holds runtime configuration for the Unduh download bot.
type Config struct {
	AppEnv   string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPPort string `mapstructure:"http_port" validate:"required"`

	Telegram  TelegramConfig  `mapstructure:"telegram" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis" validate:"required"`
	Trakteer  TrakteerConfig  `mapstructure:"trakteer"`
	Downloads DownloadsConfig `mapstructure:"downloads"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
}

// TelegramConfig configures the bot transport.
type TelegramConfig struct {
	Token            string  `mapstructure:"token" validate:"required"`
	AdminIDs         []int64 `mapstructure:"admin_ids"`
	AdminChatID      int64   `mapstructure:"admin_chat_id"`
	RequiredChannels []string `mapstructure:"required_channels"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

// RedisConfig configures the Redis connection used for locks,
// idempotency keys and the resolver cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TrakteerConfig configures the payment feed client.
type TrakteerConfig struct {
	APIKey   string `mapstructure:"api_key"`
	FeedURL  string `mapstructure:"feed_url"`
	PageName string `mapstructure:"page_name"`
}

// DownloadsConfig carries quota and pricing knobs.
type DownloadsConfig struct {
	FreeDailyLimit int `mapstructure:"free_daily_limit"`
	VipDailyLimit  int `mapstructure:"vip_daily_limit"`
}

// SentryConfig configures error reporting. Empty DSN disables it.
type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// IsAdmin reports whether the Telegram user ID is configured as an
// administrator.
func (t TelegramConfig) IsAdmin(userID int64) bool {
	for _, id := range t.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
