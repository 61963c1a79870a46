package config

import (
	"time"

	"github.com/bshumway9/stock-split-checker/pkg/config"
)

// Ledger holds the persisted-state locations.
type Ledger struct {
	DBPath      string `mapstructure:"db_path"`
	ReportPath  string `mapstructure:"report_path"`
	LastRunPath string `mapstructure:"last_run_path"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxOutputTokens     int    `mapstructure:"max_output_tokens"`
}

// Scraper holds shared scraper settings.
type Scraper struct {
	UserAgent     string        `mapstructure:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	StockTitanRSS string        `mapstructure:"stock_titan_rss"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Discord holds configuration for the Discord webhook notifier.
type Discord struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Username   string `mapstructure:"username"`
}

// Email holds SMTP configuration for the email notifier.
type Email struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Sender    string `mapstructure:"sender"`
	Password  string `mapstructure:"password"`
	Recipient string `mapstructure:"recipient"`
}

// SMS holds configuration for the carrier-gateway SMS fallback.
type SMS struct {
	PhoneNumber string `mapstructure:"phone_number"`
	Carrier     string `mapstructure:"carrier"`
}

// Notify groups the notification channels in fallback order.
type Notify struct {
	Telegram Telegram `mapstructure:"telegram"`
	Discord  Discord  `mapstructure:"discord"`
	Email    Email    `mapstructure:"email"`
	SMS      SMS      `mapstructure:"sms"`
}

// Scheduler holds the in-process scheduler settings.
type Scheduler struct {
	CronSpec string `mapstructure:"cron_spec"`
}

// Config holds the full configuration for the checker.
type Config struct {
	App       config.App    `mapstructure:"app"`
	Logger    config.Logger `mapstructure:"logger"`
	Ledger    Ledger        `mapstructure:"ledger"`
	Gemini    Gemini        `mapstructure:"gemini"`
	Scraper   Scraper       `mapstructure:"scraper"`
	Notify    Notify        `mapstructure:"notify"`
	Scheduler Scheduler     `mapstructure:"scheduler"`
}

// Load loads the checker configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Ledger.DBPath == "" {
		cfg.Ledger.DBPath = "logs/previously_sent_db.json"
	}
	if cfg.Ledger.ReportPath == "" {
		cfg.Ledger.ReportPath = "logs/previously_sent.txt"
	}
	if cfg.Ledger.LastRunPath == "" {
		cfg.Ledger.LastRunPath = "logs/last_run.txt"
	}
	if cfg.Scraper.MaxRetries == 0 {
		cfg.Scraper.MaxRetries = 3
	}
	if cfg.Scraper.RetryDelay == 0 {
		cfg.Scraper.RetryDelay = 10 * time.Second
	}
	if cfg.Scraper.Timeout == 0 {
		cfg.Scraper.Timeout = 30 * time.Second
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.5-flash"
	}
	if cfg.Gemini.MaxRequestPerMinute == 0 {
		cfg.Gemini.MaxRequestPerMinute = 10
	}
	if cfg.Gemini.MaxOutputTokens == 0 {
		cfg.Gemini.MaxOutputTokens = 500
	}
	return &cfg, nil
}
