package config

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds of 0 selects the poller default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	// SecretToken is echoed by Telegram in X-Telegram-Bot-Api-Secret-Token.
	SecretToken string `yaml:"secret_token" envconfig:"WEBHOOK_SECRET_TOKEN"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// StorageConfig selects the entry store backend.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
}

// DiaryConfig controls how entries are dated and shown.
type DiaryConfig struct {
	// Timezone is an IANA name used to compute "today" for new entries.
	Timezone     string `yaml:"timezone" envconfig:"DIARY_TIMEZONE"`
	EmojiNumbers bool   `yaml:"emoji_numbers" envconfig:"DIARY_EMOJI_NUMBERS"`
}

// BroadcastConfig configures the periodic prompt sent to every known user.
type BroadcastConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"BROADCAST_ENABLED"`
	Schedule string `yaml:"schedule" envconfig:"BROADCAST_SCHEDULE"`
	Timezone string `yaml:"timezone" envconfig:"BROADCAST_TIMEZONE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// StorageMemory keeps entries in process memory.
	StorageMemory = "memory"
	// StoragePostgres persists entries in Postgres.
	StoragePostgres = "postgres"
)

// DefaultBroadcastSchedule fires every Tuesday at 18:00.
const DefaultBroadcastSchedule = "0 18 * * TUE"

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// RateLimitConfig throttles each user. ExcludeUpdates lists update kinds
// ("callback", "message", "inline_query") that bypass the limiter.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Diary     DiaryConfig     `yaml:"diary"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
}

// Load reads the YAML file at path, overlays environment variables and normalizes the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := new(Config)
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize validates cfg in place and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("config: telegram.token (BOT_TOKEN) is required")
	}
	steps := []func(*Config) error{
		normalizeRunMode,
		normalizeRateLimit,
		normalizeStorage,
		normalizeDiary,
		normalizeBroadcast,
	}
	for _, step := range steps {
		if err := step(cfg); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

func normalizeRunMode(cfg *Config) error {
	mode := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	switch mode {
	case "", "polling", RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
		}
		cfg.Telegram.RunMode = RunModeLongpoll
	case RunModeWebhook:
		wh := cfg.Webhook
		missing := map[string]bool{
			"webhook.url":    strings.TrimSpace(wh.URL) == "",
			"webhook.listen": strings.TrimSpace(wh.Listen) == "",
			"webhook.port":   wh.Port <= 0,
		}
		for _, key := range []string{"webhook.url", "webhook.listen", "webhook.port"} {
			if missing[key] {
				return fmt.Errorf("%s is required in webhook mode", key)
			}
		}
		cfg.Telegram.RunMode = RunModeWebhook
	default:
		return fmt.Errorf("telegram.run_mode %q is not one of webhook, longpoll", cfg.Telegram.RunMode)
	}
	return nil
}

var excludable = map[string]bool{UpdateCallback: true, UpdateMessage: true, UpdateInlineQuery: true}

func normalizeRateLimit(cfg *Config) error {
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(v))
		if kind != "" && !excludable[kind] {
			return fmt.Errorf("rate_limit.exclude_updates: %q is not one of callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = kind
	}
	return nil
}

func normalizeStorage(cfg *Config) error {
	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" {
		driver = StoragePostgres
	}
	cfg.Storage.Driver = driver
	switch driver {
	case StorageMemory:
		return nil
	case StoragePostgres:
	default:
		return fmt.Errorf("storage.driver %q is not one of postgres, memory", driver)
	}

	db := &cfg.Database
	if strings.TrimSpace(db.Host) == "" || strings.TrimSpace(db.Name) == "" {
		return errors.New("database.host and database.name are required for the postgres driver")
	}
	db.Port = cmp.Or(db.Port, "5432")
	db.SSLMode = cmp.Or(db.SSLMode, "disable")
	if db.MaxConnections <= 0 {
		db.MaxConnections = 5
	}
	return nil
}

func normalizeDiary(cfg *Config) error {
	if _, err := cfg.Diary.Location(); err != nil {
		return fmt.Errorf("diary.timezone %q: %w", cfg.Diary.Timezone, err)
	}
	return nil
}

func normalizeBroadcast(cfg *Config) error {
	b := &cfg.Broadcast
	if !b.Enabled {
		return nil
	}
	b.Schedule = cmp.Or(strings.TrimSpace(b.Schedule), DefaultBroadcastSchedule)
	b.Timezone = cmp.Or(strings.TrimSpace(b.Timezone), cfg.Diary.Timezone)
	if _, err := b.Location(); err != nil {
		return fmt.Errorf("broadcast.timezone %q: %w", b.Timezone, err)
	}
	return nil
}

// Location resolves the diary timezone, falling back to the process local zone.
func (d DiaryConfig) Location() (*time.Location, error) {
	return loadLocation(d.Timezone)
}

// Location resolves the broadcast timezone, falling back to the process local zone.
func (b BroadcastConfig) Location() (*time.Location, error) {
	return loadLocation(b.Timezone)
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
