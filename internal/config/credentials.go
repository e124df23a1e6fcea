package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Credentials is the JSON credentials file. Both the alpaca_* and the short
// api_key/api_secret spellings are accepted; the alpaca_* keys win.
type Credentials struct {
	AlpacaAPIKeyID     string `json:"alpaca_api_key_id"`
	AlpacaAPISecretKey string `json:"alpaca_api_secret_key"`
	APIKey             string `json:"api_key"`
	APISecret          string `json:"api_secret"`
	BaseURL            string `json:"base_url"`
	SenderEmail        string `json:"sender_email"`
	ReceiverEmail      string `json:"receiver_email"`
	EmailPassword      string `json:"email_password"`
}

// LoadCredentials reads the credentials file. A missing file yields empty credentials.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{}, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return &c, nil
}

func (c *Credentials) apply(cfg *Config) {
	set := func(dst *string, vals ...string) {
		for _, v := range vals {
			if v != "" {
				*dst = v
				return
			}
		}
	}
	set(&cfg.Alpaca.APIKey, c.AlpacaAPIKeyID, c.APIKey)
	set(&cfg.Alpaca.APISecret, c.AlpacaAPISecretKey, c.APISecret)
	set(&cfg.Alpaca.BaseURL, c.BaseURL)
	set(&cfg.Email.Sender, c.SenderEmail)
	set(&cfg.Email.Receiver, c.ReceiverEmail)
	set(&cfg.Email.Password, c.EmailPassword)
}
