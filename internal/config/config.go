package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	LiveBaseURL  = "https://api.alpaca.markets"
	PaperBaseURL = "https://paper-api.alpaca.markets"
)

// Config holds all application configuration.
type Config struct {
	Profile Profile  `yaml:"-"`
	Symbols []string `yaml:"symbols"`

	MarketData struct {
		LookbackDays int `yaml:"lookback_days"`
	} `yaml:"market_data"`
	Options struct {
		MaxContracts int `yaml:"max_contracts"`
	} `yaml:"options"`
	Strategy struct {
		Allocation     float64 `yaml:"allocation"`
		MinBScore      int     `yaml:"min_b_score"`
		RankByScore    bool    `yaml:"rank_by_score"`
		PriceTolerance float64 `yaml:"price_tolerance"`
	} `yaml:"strategy"`
	Schedule struct {
		CycleSpec string `yaml:"cycle_spec"`
	} `yaml:"schedule"`
	Alpaca struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		BaseURL   string `yaml:"base_url"`
		DataURL   string `yaml:"data_url"`
	} `yaml:"alpaca"`
	Email struct {
		Enabled  bool   `yaml:"enabled"`
		Report   bool   `yaml:"report"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Sender   string `yaml:"sender"`
		Receiver string `yaml:"receiver"`
		Password string `yaml:"password"`
		Retries  int    `yaml:"retries"`
	} `yaml:"email"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresURL string `yaml:"postgres_url"`
	} `yaml:"database"`
	Timeouts struct {
		MarketData time.Duration `yaml:"market_data"`
		Broker     time.Duration `yaml:"broker"`
		Email      time.Duration `yaml:"email"`
	} `yaml:"timeouts"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Trace struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"trace"`
	Credentials struct {
		Path string `yaml:"path"`
	} `yaml:"credentials"`
	Progress bool   `yaml:"progress"`
	Proxy    string `yaml:"proxy"`
}

// Load reads config from a YAML file, merges the credentials file, then applies
// environment variable overrides and profile defaults. A missing file is not an error.
func Load(path string, profile Profile) (*Config, error) {
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
	cfg.Profile = profile

	if cfg.Credentials.Path == "" {
		cfg.Credentials.Path = profile.CredentialsFile
	}
	if v := os.Getenv("CREDENTIALS_PATH"); v != "" {
		cfg.Credentials.Path = v
	}
	if cfg.Credentials.Path != "" {
		creds, err := LoadCredentials(cfg.Credentials.Path)
		if err != nil {
			return nil, err
		}
		creds.apply(cfg)
	}

	if profile.UseEnv {
		applyCredentialEnv(cfg)
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyCredentialEnv(cfg *Config) {
	if v := os.Getenv("ALPACA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		cfg.Email.Sender = v
	}
	if v := os.Getenv("RECEIVER_EMAIL"); v != "" {
		cfg.Email.Receiver = v
	}
	if v := os.Getenv("EMAIL_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("CYCLE_SPEC"); v != "" {
		cfg.Schedule.CycleSpec = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.PostgresURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("ALLOCATION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Strategy.Allocation = f
		}
	}
	if v := os.Getenv("RANK_BY_SCORE"); v != "" {
		cfg.Strategy.RankByScore = strings.EqualFold(v, "true")
	}
}

func applyDefaults(cfg *Config) {
	p := cfg.Profile
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"SPY"}
	}
	if cfg.MarketData.LookbackDays == 0 {
		cfg.MarketData.LookbackDays = 5
	}
	if cfg.Options.MaxContracts == 0 {
		cfg.Options.MaxContracts = 50
	}
	if cfg.Strategy.Allocation == 0 {
		cfg.Strategy.Allocation = 0.2
	}
	if cfg.Strategy.PriceTolerance == 0 {
		cfg.Strategy.PriceTolerance = 0.01
	}
	if cfg.Schedule.CycleSpec == "" {
		cfg.Schedule.CycleSpec = "@every 4h"
	}
	if p.ForcePaper || cfg.Alpaca.BaseURL == "" {
		cfg.Alpaca.BaseURL = PaperBaseURL
	}
	if p.Email {
		cfg.Email.Enabled = true
		cfg.Email.Report = cfg.Email.Report || p.Report
	} else {
		cfg.Email.Enabled = false
		cfg.Email.Report = false
	}
	if cfg.Email.Host == "" {
		cfg.Email.Host = "smtp.gmail.com"
	}
	if cfg.Email.Port == 0 {
		cfg.Email.Port = 465
	}
	if cfg.Email.Retries == 0 {
		cfg.Email.Retries = 2
	}
	if cfg.Timeouts.MarketData == 0 {
		cfg.Timeouts.MarketData = 30 * time.Second
	}
	if cfg.Timeouts.Broker == 0 {
		cfg.Timeouts.Broker = 30 * time.Second
	}
	if cfg.Timeouts.Email == 0 {
		cfg.Timeouts.Email = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	cfg.Progress = cfg.Progress || p.Progress
	if cfg.Database.SQLitePath == "" && cfg.Database.PostgresURL == "" {
		cfg.Database.SQLitePath = "data/option_sentinel.db"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Alpaca.APIKey == "" {
		return fmt.Errorf("alpaca.api_key is required")
	}
	if c.Alpaca.APISecret == "" {
		return fmt.Errorf("alpaca.api_secret is required")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	if c.Strategy.Allocation <= 0 || c.Strategy.Allocation > 1 {
		return fmt.Errorf("strategy.allocation must be in (0, 1], got %v", c.Strategy.Allocation)
	}
	if c.Strategy.MinBScore < 0 || c.Strategy.MinBScore > 8 {
		return fmt.Errorf("strategy.min_b_score must be in [0, 8], got %d", c.Strategy.MinBScore)
	}
	if c.Email.Enabled {
		if c.Email.Sender == "" || c.Email.Receiver == "" || c.Email.Password == "" {
			return fmt.Errorf("email.sender, email.receiver and email.password are required when email is enabled")
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

func splitSymbols(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
