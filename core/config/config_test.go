package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	var cfg Config
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.SecretToken = strings.Repeat("s", 44)
	cfg.Telegram.BotName = "@StickerManBot"
	cfg.Operator.ChatID = 777
	cfg.E621.BaseURL = "https://e621.test/"
	cfg.E621.UserAgent = "stickerbot/1.0"
	cfg.E621.Login = "service"
	cfg.E621.APIKey = "service-key"
	cfg.Database.Host = "localhost"
	cfg.Database.User = "bot"
	cfg.Database.Name = "stickerbot"
	cfg.Server.Port = 8080
	return &cfg
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.APIURL != "https://api.telegram.org" {
		t.Fatalf("api url default = %q", cfg.Telegram.APIURL)
	}
	if cfg.Telegram.BotName != "StickerManBot" {
		t.Fatalf("bot name not stripped: %q", cfg.Telegram.BotName)
	}
	if cfg.E621.BaseURL != "https://e621.test" {
		t.Fatalf("base url not trimmed: %q", cfg.E621.BaseURL)
	}
	if cfg.Database.Port != "5432" || cfg.Database.SSLMode != "disable" || cfg.Database.MaxConnections != 8 {
		t.Fatalf("db defaults not applied: %+v", cfg.Database)
	}
	if cfg.Server.Listen != "0.0.0.0" {
		t.Fatalf("listen default = %q", cfg.Server.Listen)
	}
}

func TestNormalizeRejectsBadSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.SecretToken = "short"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected secret length error")
	}
}

func TestNormalizeRequiredFields(t *testing.T) {
	mutations := []struct {
		name string
		mut  func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }},
		{"missing operator", func(c *Config) { c.Operator.ChatID = 0 }},
		{"missing e621 base url", func(c *Config) { c.E621.BaseURL = "" }},
		{"missing e621 user agent", func(c *Config) { c.E621.UserAgent = "" }},
		{"missing e621 credential", func(c *Config) { c.E621.APIKey = "" }},
		{"missing db host", func(c *Config) { c.Database.Host = "" }},
		{"missing server port", func(c *Config) { c.Server.Port = 0 }},
	}
	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mut(cfg)
			if err := Normalize(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
