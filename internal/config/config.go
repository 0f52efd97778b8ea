// Package config manages application configuration from default values,
// an optional YAML file, and BOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines the application configuration. Values can be set via
// environment variables prefixed with BOT_ (e.g. BOT_TELEGRAM_TOKEN) or
// through a YAML config file.
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Health    HealthConfig    `mapstructure:"health"`
	Log       LogConfig       `mapstructure:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// TelegramConfig holds the bot credential and the owner identity.
type TelegramConfig struct {
	Token   string `mapstructure:"token"    validate:"required"`
	OwnerID int64  `mapstructure:"owner_id" validate:"required,gt=0"`

	// BotInfo is filled at startup from GetMe and never read from config.
	BotInfo *models.User `mapstructure:"-"`
}

// PolicyConfig holds the rate-limit window and ban duration bounds.
type PolicyConfig struct {
	RateLimitMinutes int `mapstructure:"rate_limit_minutes" validate:"required,min=1"`
	MaxBanHours      int `mapstructure:"max_ban_hours"      validate:"required,min=1"`
}

// RateLimitWindow returns the configured window as a duration.
func (p PolicyConfig) RateLimitWindow() time.Duration {
	return time.Duration(p.RateLimitMinutes) * time.Minute
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// HealthConfig holds the liveness HTTP server address.
type HealthConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// LogConfig controls log level and output format.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TaskConfig enables and schedules one background task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// MessagesConfig holds the fixed user-facing replies; dynamic replies are
// composed in the handlers.
type MessagesConfig struct {
	Welcome        string `mapstructure:"welcome"         validate:"required"`
	Help           string `mapstructure:"help"            validate:"required"`
	NotAuthorized  string `mapstructure:"not_authorized"  validate:"required"`
	GeneralError   string `mapstructure:"general_error"   validate:"required"`
	RelayConfirmed string `mapstructure:"relay_confirmed" validate:"required"`
	RelayFailed    string `mapstructure:"relay_failed"    validate:"required"`
}

// Load reads configuration from the given YAML file (optional), overlays
// BOT_* environment variables, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		// Missing config file is fine, defaults and env cover everything.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("policy.rate_limit_minutes", 10)
	v.SetDefault("policy.max_ban_hours", 720)

	v.SetDefault("database.path", "storage.db")

	v.SetDefault("health.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)

	v.SetDefault("scheduler.tasks.ban_sweep.enabled", true)
	v.SetDefault("scheduler.tasks.ban_sweep.schedule", "*/15 * * * *")
	v.SetDefault("scheduler.tasks.db_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.db_maintenance.schedule", "0 4 * * *")

	v.SetDefault("messages.welcome",
		"👋 Hi! Send me a message and it will be forwarded to the operators. "+
			"Any content type works; please put everything into a single message.")
	v.SetDefault("messages.help",
		"Send any message and it will be forwarded to the operators. "+
			"One message per rate-limit window; replies arrive in this chat.")
	v.SetDefault("messages.not_authorized",
		"⛔ You are not allowed to use this command.")
	v.SetDefault("messages.general_error",
		"❌ Something went wrong. Please try again later.")
	v.SetDefault("messages.relay_confirmed",
		"✅ Your message has been delivered. You can send the next one after the rate-limit window passes.")
	v.SetDefault("messages.relay_failed",
		"❌ Your message could not be delivered. Please try again later or contact the administrator.")
}
