package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ALPACA_API_KEY_ID", "ALPACA_API_SECRET_KEY", "BASE_URL",
		"SENDER_EMAIL", "RECEIVER_EMAIL", "EMAIL_PASSWORD",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "SYMBOLS", "CYCLE_SPEC",
		"SQLITE_PATH", "DATABASE_URL", "LOG_LEVEL", "HTTPS_PROXY",
		"ALLOCATION", "RANK_BY_SCORE", "CREDENTIALS_PATH",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), Live())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg.Symbols, []string{"SPY"}) {
		t.Errorf("unexpected symbols: %v", cfg.Symbols)
	}
	if cfg.Strategy.Allocation != 0.2 || cfg.Strategy.PriceTolerance != 0.01 {
		t.Errorf("unexpected strategy defaults: %+v", cfg.Strategy)
	}
	if cfg.Strategy.RankByScore || cfg.Strategy.MinBScore != 0 {
		t.Errorf("selection must default to literal first-candidate: %+v", cfg.Strategy)
	}
	if cfg.Schedule.CycleSpec != "@every 4h" {
		t.Errorf("unexpected cycle spec: %s", cfg.Schedule.CycleSpec)
	}
	if cfg.Alpaca.BaseURL != PaperBaseURL {
		t.Errorf("expected paper URL when unset, got %s", cfg.Alpaca.BaseURL)
	}
	if cfg.Email.Host != "smtp.gmail.com" || cfg.Email.Port != 465 || !cfg.Email.Enabled || !cfg.Email.Report {
		t.Errorf("unexpected email defaults: %+v", cfg.Email)
	}
	if cfg.Timeouts.MarketData != 30*time.Second || cfg.Timeouts.Broker != 30*time.Second || cfg.Timeouts.Email != 30*time.Second {
		t.Errorf("unexpected timeouts: %+v", cfg.Timeouts)
	}
	if !cfg.Progress {
		t.Error("live profile should enable progress")
	}
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
symbols: [QQQ, IWM]
strategy:
  allocation: 0.1
  rank_by_score: true
  min_b_score: 3
schedule:
  cycle_spec: "0 0 */2 * * *"
timeouts:
  market_data: 10s
alpaca:
  api_key: yaml-key
  api_secret: yaml-secret
`)
	t.Setenv("ALPACA_API_KEY_ID", "env-key")
	t.Setenv("BASE_URL", LiveBaseURL)
	t.Setenv("SYMBOLS", "aapl, msft ,")

	cfg, err := Load(path, Live())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Alpaca.APIKey != "env-key" || cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("unexpected alpaca credentials: %+v", cfg.Alpaca)
	}
	if cfg.Alpaca.BaseURL != LiveBaseURL {
		t.Errorf("expected live URL from env, got %s", cfg.Alpaca.BaseURL)
	}
	if !reflect.DeepEqual(cfg.Symbols, []string{"AAPL", "MSFT"}) {
		t.Errorf("unexpected symbols: %v", cfg.Symbols)
	}
	if cfg.Strategy.Allocation != 0.1 || !cfg.Strategy.RankByScore || cfg.Strategy.MinBScore != 3 {
		t.Errorf("unexpected strategy: %+v", cfg.Strategy)
	}
	if cfg.Schedule.CycleSpec != "0 0 */2 * * *" {
		t.Errorf("unexpected cycle spec: %s", cfg.Schedule.CycleSpec)
	}
	if cfg.Timeouts.MarketData != 10*time.Second {
		t.Errorf("unexpected market data timeout: %v", cfg.Timeouts.MarketData)
	}
}

func TestLoad_PaperUsesCredentialsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	creds := writeFile(t, dir, "context.json", `{
		"alpaca_api_key_id": "file-key",
		"alpaca_api_secret_key": "file-secret",
		"api_key": "short-key",
		"base_url": "https://api.alpaca.markets",
		"sender_email": "bot@example.com"
	}`)
	t.Setenv("CREDENTIALS_PATH", creds)
	t.Setenv("ALPACA_API_KEY_ID", "env-key")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"), Paper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Alpaca.APIKey != "file-key" || cfg.Alpaca.APISecret != "file-secret" {
		t.Errorf("paper profile must ignore env credentials: %+v", cfg.Alpaca)
	}
	if cfg.Alpaca.BaseURL != PaperBaseURL {
		t.Errorf("paper profile must force the paper endpoint, got %s", cfg.Alpaca.BaseURL)
	}
	if cfg.Email.Enabled || cfg.Progress {
		t.Errorf("paper profile must be minimal: email=%v progress=%v", cfg.Email.Enabled, cfg.Progress)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoadCredentials_ShortKeys(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "context.json", `{"api_key": "k", "api_secret": "s", "base_url": "u"}`)
	c, err := LoadCredentials(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := &Config{}
	c.apply(cfg)
	if cfg.Alpaca.APIKey != "k" || cfg.Alpaca.APISecret != "s" || cfg.Alpaca.BaseURL != "u" {
		t.Errorf("unexpected alpaca: %+v", cfg.Alpaca)
	}
}

func TestLoadCredentials_Malformed(t *testing.T) {
	p := writeFile(t, t.TempDir(), "context.json", `{not json`)
	if _, err := LoadCredentials(p); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{Symbols: []string{"SPY"}}
		c.Alpaca.APIKey, c.Alpaca.APISecret = "k", "s"
		c.Strategy.Allocation = 0.2
		return c
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing key", func(c *Config) { c.Alpaca.APIKey = "" }, true},
		{"missing secret", func(c *Config) { c.Alpaca.APISecret = "" }, true},
		{"no symbols", func(c *Config) { c.Symbols = nil }, true},
		{"allocation above one", func(c *Config) { c.Strategy.Allocation = 1.5 }, true},
		{"min score out of range", func(c *Config) { c.Strategy.MinBScore = 9 }, true},
		{"email without password", func(c *Config) {
			c.Email.Enabled, c.Email.Sender, c.Email.Receiver = true, "a@x", "b@x"
		}, true},
		{"telegram half configured", func(c *Config) { c.Telegram.BotToken = "t" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
