package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"MacdView/internal/timeframe"
)

// Lookback slider bounds, in hours.
const (
	MinLookbackHours = 24
	MaxLookbackHours = 4000
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		// BaseURL selects the REST provider; empty means Yahoo Finance.
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Symbol  string `yaml:"symbol"`
	} `yaml:"data_source"`
	Chart struct {
		DefaultTimeframe     string `yaml:"default_timeframe"`
		DefaultLookbackHours int    `yaml:"default_lookback_hours"`
		HistoryDays          int    `yaml:"history_days"`
		WarmupBars           int    `yaml:"warmup_bars"`
		MinSeedBars          int    `yaml:"min_seed_bars"`
		CalendarMIC          string `yaml:"calendar_mic"`
	} `yaml:"chart"`
	Cache struct {
		Disabled   bool   `yaml:"disabled"`
		TTLSeconds int    `yaml:"ttl_seconds"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"cache"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy    string `yaml:"proxy"`
	LogLevel string `yaml:"log_level"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	for key, dst := range map[string]*string{
		"YAHOO_SYMBOL":       &cfg.DataSource.Symbol,
		"DATA_BASE_URL":      &cfg.DataSource.BaseURL,
		"DATA_API_KEY":       &cfg.DataSource.APIKey,
		"HTTPS_PROXY":        &cfg.Proxy,
		"TELEGRAM_BOT_TOKEN": &cfg.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &cfg.Telegram.ChatID,
		"SQLITE_PATH":        &cfg.Cache.SQLitePath,
		"CRON_REFRESH":       &cfg.Schedule.RefreshCron,
		"LOG_LEVEL":          &cfg.LogLevel,
	} {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse HTTP_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	// Defaults
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "GC=F"
	}
	if cfg.Chart.DefaultTimeframe == "" {
		cfg.Chart.DefaultTimeframe = string(timeframe.TF12h)
	}
	if cfg.Chart.DefaultLookbackHours == 0 {
		cfg.Chart.DefaultLookbackHours = 1000
	}
	if cfg.Chart.HistoryDays == 0 {
		cfg.Chart.HistoryDays = 730
	}
	if cfg.Chart.WarmupBars == 0 {
		cfg.Chart.WarmupBars = 200
	}
	if cfg.Chart.CalendarMIC == "" {
		cfg.Chart.CalendarMIC = "xnys"
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Cache.SQLitePath == "" {
		cfg.Cache.SQLitePath = ":memory:"
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 */5 * * * *"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// Validate checks field ranges and combinations.
func (c *Config) Validate() error {
	if _, err := timeframe.Parse(c.Chart.DefaultTimeframe); err != nil {
		return fmt.Errorf("chart.default_timeframe: %w", err)
	}
	if err := ValidateLookbackHours(c.Chart.DefaultLookbackHours); err != nil {
		return fmt.Errorf("chart.default_lookback_hours: %w", err)
	}
	if c.Chart.HistoryDays <= 0 {
		return fmt.Errorf("chart.history_days must be positive")
	}
	if c.Chart.WarmupBars < 0 || c.Chart.MinSeedBars < 0 {
		return fmt.Errorf("chart.warmup_bars and chart.min_seed_bars cannot be negative")
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d", c.Server.Port)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// CacheTTL returns the fetch cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// TelegramEnabled reports whether the Telegram notifier is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

// ValidateLookbackHours checks a lookback against the slider bounds.
func ValidateLookbackHours(hours int) error {
	if hours < MinLookbackHours || hours > MaxLookbackHours {
		return fmt.Errorf("lookback %dh outside %d..%d hours", hours, MinLookbackHours, MaxLookbackHours)
	}
	return nil
}
