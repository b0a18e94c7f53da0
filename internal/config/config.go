// Package config loads the application configuration from environment
// variables and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/reviewloop/reviewloop/internal/logger"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port string
}

// GitHubConfig holds source-control host settings. The token is a personal
// access token used for all host API calls.
type GitHubConfig struct {
	Token string
}

// LLMConfig holds the chat-completion transport settings.
type LLMConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// CacheConfig bounds the in-memory request cache.
type CacheConfig struct {
	DefaultTTL time.Duration
	MaxSize    int
}

// DBConfig holds the postgres connection settings.
type DBConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

// Config holds the application's configuration values.
type Config struct {
	Server       ServerConfig
	GitHub       GitHubConfig
	LLM          LLMConfig
	Cache        CacheConfig
	Database     DBConfig
	Log          logger.Config
	MaxWorkers   int
	TemplateFile string
}

// Load reads configuration from environment variables and a .env file, sets
// sensible defaults, and validates required fields. The LLM API key is
// deliberately not required here; the analysis pipeline rejects calls with a
// typed configuration error when it is missing.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_OUTPUT", "stdout")
	viper.SetDefault("LLM_MODEL", "gpt-4o-mini")
	viper.SetDefault("LLM_BASE_URL", "https://api.openai.com/v1/chat/completions")
	viper.SetDefault("LLM_TIMEOUT", "30s")
	viper.SetDefault("LLM_MAX_TOKENS", 4096)
	viper.SetDefault("LLM_TEMPERATURE", 0.3)
	viper.SetDefault("CACHE_DEFAULT_TTL", "5m")
	viper.SetDefault("CACHE_MAX_SIZE", 100)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "reviewloop")
	viper.SetDefault("DB_NAME", "reviewloop")
	viper.SetDefault("MAX_WORKERS", 3)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Debug("no .env file loaded", "error", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		GitHub: GitHubConfig{
			Token: viper.GetString("GITHUB_TOKEN"),
		},
		LLM: LLMConfig{
			APIKey:      viper.GetString("LLM_API_KEY"),
			Model:       viper.GetString("LLM_MODEL"),
			BaseURL:     viper.GetString("LLM_BASE_URL"),
			Timeout:     viper.GetDuration("LLM_TIMEOUT"),
			MaxTokens:   viper.GetInt("LLM_MAX_TOKENS"),
			Temperature: viper.GetFloat64("LLM_TEMPERATURE"),
		},
		Cache: CacheConfig{
			DefaultTTL: viper.GetDuration("CACHE_DEFAULT_TTL"),
			MaxSize:    viper.GetInt("CACHE_MAX_SIZE"),
		},
		Database: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetInt("DB_PORT"),
			Username: viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_NAME"),
		},
		Log: logger.Config{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
			Output: viper.GetString("LOG_OUTPUT"),
		},
		MaxWorkers:   viper.GetInt("MAX_WORKERS"),
		TemplateFile: viper.GetString("REVIEW_TEMPLATE_FILE"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("GITHUB_TOKEN must be set")
	}
	if c.Cache.DefaultTTL < 0 {
		return fmt.Errorf("CACHE_DEFAULT_TTL must not be negative")
	}
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("CACHE_MAX_SIZE must be positive")
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("MAX_WORKERS must be positive")
	}
	return nil
}
