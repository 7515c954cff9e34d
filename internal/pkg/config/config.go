package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Scrape    ScrapeConfig    `yaml:"scrape"`
	Feed      FeedConfig      `yaml:"feed"`
	Freshness FreshnessConfig `yaml:"freshness"`
	Handoff   HandoffConfig   `yaml:"handoff"`
	Health    HealthConfig    `yaml:"health"`
	Notify    NotifyConfig    `yaml:"notify"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // optional additional log file
}

type ScrapeConfig struct {
	PageURL     string        `yaml:"page_url"`
	Interval    time.Duration `yaml:"interval"`     // scan tick period
	LoadTimeout time.Duration `yaml:"load_timeout"` // browser navigation timeout
	UserAgent   string        `yaml:"user_agent"`
	Headless    *bool         `yaml:"headless"` // default true
}

type FeedConfig struct {
	URL               string        `yaml:"url"`    // feed hub websocket endpoint
	Source            string        `yaml:"source"` // source name stamped on every message
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
}

type FreshnessConfig struct {
	StaleAfter  time.Duration `yaml:"stale_after"`  // unchanged data beyond this forces a reload
	ReloadEvery time.Duration `yaml:"reload_every"` // unconditional reload period
	MatchPoint  int           `yaml:"match_point"`  // round score that flags an ending map
}

type HandoffConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type HealthConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type NotifyConfig struct {
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// HeadlessMode reports whether the browser page should run headless
// (default true when unset).
func (c *ScrapeConfig) HeadlessMode() bool {
	if c.Headless == nil {
		return true
	}
	return *c.Headless
}
