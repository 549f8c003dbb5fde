package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	API      APIConfig      `yaml:"api"`
	Telegram TelegramConfig `yaml:"telegram"`
	Notifier NotifierConfig `yaml:"notifier"`
	Bot      BotConfig      `yaml:"bot"`
	Seed     SeedConfig     `yaml:"seed"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	PoolSize   int    `yaml:"pool_size"`
	SessionTTL int    `yaml:"session_ttl_seconds"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig      `yaml:"metrics"`
}

type APIAuthConfig struct {
	Enabled bool           `yaml:"enabled"`
	Header  string         `yaml:"header"`
	APIKeys []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type NotifierConfig struct {
	WebhookURL    string `yaml:"webhook_url"`
	QueueSize     int    `yaml:"queue_size"`
	MaxRetries    int    `yaml:"max_retries"`
	InitialDelay  int    `yaml:"initial_delay_seconds"`
	MaxDelay      int    `yaml:"max_delay_seconds"`
	TimeoutSecond int    `yaml:"timeout_seconds"`
}

type BotConfig struct {
	TenantID          int64 `yaml:"tenant_id"`
	RateLimitMessages int   `yaml:"rate_limit_messages"`
	RateLimitWindow   int   `yaml:"rate_limit_window_seconds"`
}

// SeedConfig points to the YAML fixture describing tenants, stylists and
// services to upsert at startup.
type SeedConfig struct {
	Path string `yaml:"path"`
}

// Load reads the YAML config at configPath, expanding ${ENV} references
// after loading an optional .env file.
func Load(configPath string) (*Config, error) {
	// Optional: a missing .env is not an error.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expanded, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.API.Enabled && c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth is enabled but no api keys are configured")
	}
	for _, key := range c.API.Auth.APIKeys {
		if key.Key == "" {
			return fmt.Errorf("api key for client %q is empty", key.Name)
		}
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis is enabled but address is empty")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "belleza"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.Auth.Header == "" {
		c.API.Auth.Header = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
	if c.API.Metrics.Enabled && c.API.Metrics.Port == 0 {
		c.API.Metrics.Port = 9090
	}
	if c.Redis.SessionTTL == 0 {
		c.Redis.SessionTTL = 24 * 60 * 60
	}
	if c.Notifier.QueueSize == 0 {
		c.Notifier.QueueSize = 1000
	}
	if c.Notifier.MaxRetries == 0 {
		c.Notifier.MaxRetries = 5
	}
	if c.Notifier.TimeoutSecond == 0 {
		c.Notifier.TimeoutSecond = 10
	}
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = 20
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = 60
	}
}
