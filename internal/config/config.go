package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"reviewpulse/internal/ratelimit"
)

const (
	configPathEnv     = "REVIEWPULSE_CONFIG"
	databasePathEnv   = "REVIEWPULSE_DB_PATH"
	brightDataToken   = "BRIGHTDATA_API_TOKEN"
	anthropicKeyEnv   = "ANTHROPIC_API_KEY"
	claudeModelEnv    = "CLAUDE_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "REVIEWPULSE_LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Restaurant    RestaurantConfig   `yaml:"restaurant"`
	BrightData    BrightDataConfig   `yaml:"brightdata"`
	Claude        ClaudeConfig       `yaml:"claude"`
	RateLimit     ratelimit.Config   `yaml:"rateLimit"`
	Polling       PollingConfig      `yaml:"polling"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the local SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RestaurantConfig identifies the venue whose reviews are tracked.
type RestaurantConfig struct {
	ID        string `yaml:"id"`
	GoogleURL string `yaml:"googleUrl"`
	YelpURL   string `yaml:"yelpUrl"`
}

// BrightDataConfig wires the scrape-provider endpoints. Trigger URLs are
// per source because each points at its own provider dataset.
type BrightDataConfig struct {
	Token            string `yaml:"token"`
	BaseURL          string `yaml:"baseUrl"`
	GoogleTriggerURL string `yaml:"googleTriggerUrl"`
	YelpTriggerURL   string `yaml:"yelpTriggerUrl"`
}

// ClaudeConfig defines how to contact the extraction API.
type ClaudeConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"apiKey"`
	MaxTokens int    `yaml:"maxTokens"`
}

// PollingConfig drives the snapshot wait-and-repoll loop.
type PollingConfig struct {
	Interval string `yaml:"interval"`
	MaxPolls int    `yaml:"maxPolls"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(brightDataToken); v != "" {
		c.BrightData.Token = v
	}

	if v := os.Getenv(anthropicKeyEnv); v != "" {
		c.Claude.APIKey = v
	}

	if v := os.Getenv(claudeModelEnv); v != "" {
		c.Claude.Model = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Restaurant.ID != "" {
		base.Restaurant.ID = override.Restaurant.ID
	}
	if override.Restaurant.GoogleURL != "" {
		base.Restaurant.GoogleURL = override.Restaurant.GoogleURL
	}
	if override.Restaurant.YelpURL != "" {
		base.Restaurant.YelpURL = override.Restaurant.YelpURL
	}

	if override.BrightData.Token != "" {
		base.BrightData.Token = override.BrightData.Token
	}
	if override.BrightData.BaseURL != "" {
		base.BrightData.BaseURL = override.BrightData.BaseURL
	}
	if override.BrightData.GoogleTriggerURL != "" {
		base.BrightData.GoogleTriggerURL = override.BrightData.GoogleTriggerURL
	}
	if override.BrightData.YelpTriggerURL != "" {
		base.BrightData.YelpTriggerURL = override.BrightData.YelpTriggerURL
	}

	if override.Claude.Endpoint != "" {
		base.Claude.Endpoint = override.Claude.Endpoint
	}
	if override.Claude.Model != "" {
		base.Claude.Model = override.Claude.Model
	}
	if override.Claude.APIKey != "" {
		base.Claude.APIKey = override.Claude.APIKey
	}
	if override.Claude.MaxTokens > 0 {
		base.Claude.MaxTokens = override.Claude.MaxTokens
	}

	if override.RateLimit.Delay > 0 {
		base.RateLimit.Delay = override.RateLimit.Delay
	}
	if override.RateLimit.InitialBackoff > 0 {
		base.RateLimit.InitialBackoff = override.RateLimit.InitialBackoff
	}
	if override.RateLimit.MaxBackoff > 0 {
		base.RateLimit.MaxBackoff = override.RateLimit.MaxBackoff
	}
	if override.RateLimit.BackoffMultiplier > 1 {
		base.RateLimit.BackoffMultiplier = override.RateLimit.BackoffMultiplier
	}
	if override.RateLimit.MaxRetries > 0 {
		base.RateLimit.MaxRetries = override.RateLimit.MaxRetries
	}

	if override.Polling.Interval != "" {
		base.Polling.Interval = override.Polling.Interval
	}
	if override.Polling.MaxPolls > 0 {
		base.Polling.MaxPolls = override.Polling.MaxPolls
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Path: "reviewpulse.db"},
		BrightData: BrightDataConfig{
			BaseURL:          "https://api.brightdata.com/datasets/v3",
			GoogleTriggerURL: "https://api.brightdata.com/datasets/v3/trigger?dataset_id=gd_google_reviews",
			YelpTriggerURL:   "https://api.brightdata.com/datasets/v3/trigger?dataset_id=gd_yelp_reviews",
		},
		Claude: ClaudeConfig{
			Endpoint:  "https://api.anthropic.com/v1/messages",
			Model:     "claude-sonnet-4-5-20250929",
			MaxTokens: 20000,
		},
		Polling: PollingConfig{Interval: "30s", MaxPolls: 40},
	}
}
