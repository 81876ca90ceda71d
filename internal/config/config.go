package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingToken is returned by RequireTelegram when no bot token is set.
var ErrMissingToken = errors.New("TELEGRAM_TOKEN is required")

// Config keeps runtime settings for the planner.
type Config struct {
	TelegramToken       string
	DatabaseURL         string
	ReportInterval      time.Duration
	MaterializeAt       string
	MaterializeInterval time.Duration
	LogLevel            slog.Level
	LogFormat           string
	Location            *time.Location
}

// fileConfig mirrors the optional YAML file. Environment variables win over it.
type fileConfig struct {
	TelegramToken              string `yaml:"telegram_token"`
	DatabaseURL                string `yaml:"database_url"`
	ReportIntervalHours        int    `yaml:"report_interval_hours"`
	MaterializeAt              string `yaml:"materialize_at"`
	MaterializeIntervalMinutes int    `yaml:"materialize_interval_minutes"`
	LogLevel                   string `yaml:"log_level"`
	LogFormat                  string `yaml:"log_format"`
	Timezone                   string `yaml:"timezone"`
}

// Load reads configuration from environment variables with sane defaults.
// path names an optional YAML file; when empty, PLANNER_CONFIG is used.
func Load(path string) (Config, error) {
	if path == "" {
		path = env("PLANNER_CONFIG")
	}
	var file fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := Config{
		TelegramToken: pick(env("TELEGRAM_TOKEN"), file.TelegramToken),
		DatabaseURL:   pick(env("DATABASE_URL"), file.DatabaseURL, "daily_planner.db"),
		MaterializeAt: pick(env("MATERIALIZE_AT"), file.MaterializeAt, "00:05"),
		LogFormat:     strings.ToLower(pick(env("LOG_FORMAT"), file.LogFormat, "text")),
	}

	hours, err := positiveInt("REPORT_INTERVAL_HOURS", file.ReportIntervalHours)
	if err != nil {
		return cfg, err
	}
	if hours == 0 {
		hours = 5
	}
	cfg.ReportInterval = time.Duration(hours) * time.Hour

	minutes, err := positiveInt("MATERIALIZE_INTERVAL_MINUTES", file.MaterializeIntervalMinutes)
	if err != nil {
		return cfg, err
	}
	cfg.MaterializeInterval = time.Duration(minutes) * time.Minute

	if cfg.LogLevel, err = parseLevel(pick(env("LOG_LEVEL"), file.LogLevel, "info")); err != nil {
		return cfg, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return cfg, fmt.Errorf("invalid LOG_FORMAT %q: must be text or json", cfg.LogFormat)
	}

	cfg.Location = time.Local
	if tz := pick(env("TIMEZONE"), file.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

// RequireTelegram checks the settings only the bot needs.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return ErrMissingToken
	}
	return nil
}

// Now returns the current time in the configured location.
func (c Config) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func pick(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// positiveInt reads key from the environment, falling back to the file value.
// Zero means unset.
func positiveInt(key string, fromFile int) (int, error) {
	raw := env(key)
	if raw == "" {
		if fromFile < 0 {
			return 0, fmt.Errorf("invalid %s %d: must be positive", strings.ToLower(key), fromFile)
		}
		return fromFile, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, raw)
	}
	return n, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", raw)
	}
	return level, nil
}
