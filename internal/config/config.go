package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultTimezone is used when no timezone is configured.
const DefaultTimezone = "Asia/Colombo"

// Config keeps runtime settings for the reminder engine.
type Config struct {
	Timezone    string         `mapstructure:"timezone"`
	DatabaseURL string         `mapstructure:"database_url" validate:"required"`
	LogLevel    string         `mapstructure:"log_level" validate:"required"`
	AdminEmail  string         `mapstructure:"admin_email" validate:"omitempty,email"`
	Schedule    ScheduleConfig `mapstructure:"schedule"`
	Mail        MailConfig     `mapstructure:"mail"`
	Telegram    TelegramConfig `mapstructure:"telegram"`
}

// ScheduleConfig holds six-field cron expressions (with seconds) for every job.
type ScheduleConfig struct {
	CarryForward string `mapstructure:"carry_forward" validate:"required"`
	Daily        string `mapstructure:"daily" validate:"required"`
	Overdue      string `mapstructure:"overdue" validate:"required"`
	Monthly      string `mapstructure:"monthly" validate:"required"`
	Reminder     string `mapstructure:"reminder" validate:"required"`
}

// MailConfig describes the outgoing SMTP account.
type MailConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port" validate:"gt=0,lt=65536"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	From        string `mapstructure:"from" validate:"omitempty,email"`
	ImplicitTLS bool   `mapstructure:"implicit_tls"`
}

// Sender returns the address mail is sent from.
func (m MailConfig) Sender() string {
	if m.From != "" {
		return m.From
	}
	return m.Username
}

// TelegramConfig enables the optional Telegram bot and notification mirror.
type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// Enabled reports whether a bot token is configured.
func (t TelegramConfig) Enabled() bool {
	return t.Token != ""
}

var defaults = map[string]any{
	"timezone":               DefaultTimezone,
	"database_url":           "taskminder.db",
	"log_level":              "info",
	"admin_email":            "",
	"schedule.carry_forward": "0 5 0 * * *",
	"schedule.daily":         "0 0 8 * * *",
	"schedule.overdue":       "0 15 8 * * *",
	"schedule.monthly":       "0 30 8 1 * *",
	"schedule.reminder":      "0 * * * * *",
	"mail.host":              "smtp.gmail.com",
	"mail.port":              587,
	"mail.username":          "",
	"mail.password":          "",
	"mail.from":              "",
	"mail.implicit_tls":      false,
	"telegram.token":         "",
	"telegram.chat_id":       0,
}

// Load reads configuration from a .env file, an optional taskminder config
// file and TASKMINDER_* environment variables, in increasing precedence.
func Load() (Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("taskminder")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/taskminder")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("TASKMINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Timezone = strings.TrimSpace(cfg.Timezone)
	cfg.AdminEmail = strings.TrimSpace(cfg.AdminEmail)
	cfg.Mail.Username = strings.TrimSpace(cfg.Mail.Username)
	cfg.Mail.From = strings.TrimSpace(cfg.Mail.From)

	if err := validator.New().Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// MailEnabled reports whether notification jobs have both a sender identity
// and a destination address.
func (c Config) MailEnabled() bool {
	return c.Mail.Sender() != "" && c.AdminEmail != ""
}

// ResolveLocation loads the named IANA zone. An empty name resolves to
// DefaultTimezone. On failure the system zone is returned together with the
// error so the caller can log it and carry on.
func ResolveLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}
