package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// secretTokenLength is the exact length of the webhook secret token we issue;
// anything else is a deployment mistake.
const secretTokenLength = 44

// TelegramConfig holds Telegram Bot API related settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// SecretToken must match the X-Telegram-Bot-Api-Secret-Token header
	// Telegram attaches to every webhook delivery.
	SecretToken string `yaml:"secret_token" envconfig:"TELEGRAM_SECRET_TOKEN"`
	// BotName is the inline mention users type to search (without '@').
	BotName string `yaml:"bot_name" envconfig:"TELEGRAM_BOT_NAME"`
	APIURL  string `yaml:"api_url" envconfig:"TELEGRAM_API_URL"`
}

// OperatorConfig identifies where diagnostic replies are routed.
type OperatorConfig struct {
	ChatID int64 `yaml:"chat_id" envconfig:"OPERATOR_CHAT_ID"`
}

// E621Config holds settings for the tagging backend.
type E621Config struct {
	BaseURL   string `yaml:"base_url" envconfig:"E621_BASE_URL"`
	UserAgent string `yaml:"user_agent" envconfig:"E621_USER_AGENT"`
	// Login and APIKey identify the bot's own backend account, used for
	// searches and account provisioning.
	Login  string `yaml:"login" envconfig:"E621_LOGIN"`
	APIKey string `yaml:"api_key" envconfig:"E621_API_KEY"`
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

// ServerConfig specifies webhook listener settings.
type ServerConfig struct {
	Listen string `yaml:"listen" envconfig:"SERVER_LISTEN"`
	Port   int    `yaml:"port" envconfig:"SERVER_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// Config aggregates the application configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Operator OperatorConfig `yaml:"operator"`
	E621     E621Config     `yaml:"e621"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if len(cfg.Telegram.SecretToken) != secretTokenLength {
		return fmt.Errorf("telegram.secret_token must be exactly %d characters", secretTokenLength)
	}
	if cfg.Telegram.APIURL == "" {
		cfg.Telegram.APIURL = "https://api.telegram.org"
	}
	cfg.Telegram.APIURL = strings.TrimRight(cfg.Telegram.APIURL, "/")
	cfg.Telegram.BotName = strings.TrimPrefix(strings.TrimSpace(cfg.Telegram.BotName), "@")

	if cfg.Operator.ChatID == 0 {
		return fmt.Errorf("operator.chat_id is required")
	}

	if cfg.E621.BaseURL == "" {
		return fmt.Errorf("e621.base_url is required")
	}
	cfg.E621.BaseURL = strings.TrimRight(cfg.E621.BaseURL, "/")
	if cfg.E621.UserAgent == "" {
		return fmt.Errorf("e621.user_agent is required")
	}
	if cfg.E621.Login == "" || cfg.E621.APIKey == "" {
		return fmt.Errorf("e621.login and e621.api_key are required")
	}

	if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
		return fmt.Errorf("database.host, database.name and database.user are required")
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 8
	}

	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = "0.0.0.0"
	}
	if cfg.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}

	return nil
}
