// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Managers  ManagersConfig  `mapstructure:"managers"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Points    PointsConfig    `mapstructure:"points"`
}

// BotConfig holds chat platform bot configuration.
type BotConfig struct {
	Token          string `mapstructure:"token"`
	AnnounceChatID int64  `mapstructure:"announce_chat_id"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// ManagersConfig holds the users allowed to approve attendance and
// run admin commands.
type ManagersConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// PointsConfig holds the point award rules. Only the current authoritative
// values live here; historical values are not retained.
type PointsConfig struct {
	AttendanceAward     int    `mapstructure:"attendance_award"`
	GratitudeAward      int    `mapstructure:"gratitude_award"`
	GratitudeDailyLimit int    `mapstructure:"gratitude_daily_limit"`
	GratitudeMessageMax int    `mapstructure:"gratitude_message_max"`
	DefaultGeneration   int    `mapstructure:"default_generation"`
	TrackDays           bool   `mapstructure:"track_days"`
	Timezone            string `mapstructure:"timezone"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, DATABASE_HOST, POINTS_ATTENDANCE_AWARD
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional - env vars can provide all config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "pointsbot")
	v.SetDefault("database.name", "pointsbot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Point rule defaults
	v.SetDefault("points.attendance_award", 100)
	v.SetDefault("points.gratitude_award", 5)
	v.SetDefault("points.gratitude_daily_limit", 2)
	v.SetDefault("points.gratitude_message_max", 200)
	v.SetDefault("points.default_generation", 6)
	v.SetDefault("points.track_days", false)
	v.SetDefault("points.timezone", "Asia/Seoul")
}

// IsManager checks if a user ID is in the manager list.
func (c *Config) IsManager(userID int64) bool {
	for _, id := range c.Managers.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
