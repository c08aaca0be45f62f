// Package config loads jatran settings from defaults, an optional config
// file, a .env file and JATRAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"

	DefaultModel        = "hf.co/LiquidAI/LFM2-350M-ENJP-MT-GGUF"
	DefaultSystemPrompt = "Translate to English."
	DefaultServerURL    = "http://127.0.0.1:8000/translate"
	DefaultOllamaURL    = "http://localhost:11434"
	DefaultOpenAIURL    = "http://localhost:8080/v1"

	envPrefix = "JATRAN"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Client   ClientConfig   `mapstructure:"client"`
	Model    ModelConfig    `mapstructure:"model"`
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Validate ValidateConfig `mapstructure:"validate"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ClientConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ModelConfig struct {
	Backend      string        `mapstructure:"backend"`
	BaseURL      string        `mapstructure:"base_url"`
	Name         string        `mapstructure:"name"`
	APIKey       string        `mapstructure:"api_key"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Pull         bool          `mapstructure:"pull"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// CacheConfig enables the SQLite translation memory when Path is set.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

type ValidateConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Target  string `mapstructure:"target"`
}

// SetDefaults registers every key with its default so that env overrides
// are picked up by Unmarshal even when no config file exists.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8000")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("client.server_url", DefaultServerURL)
	v.SetDefault("client.timeout", time.Duration(0))

	v.SetDefault("model.backend", BackendOllama)
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.name", DefaultModel)
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.system_prompt", DefaultSystemPrompt)
	v.SetDefault("model.max_tokens", 256)
	v.SetDefault("model.pull", true)
	v.SetDefault("model.timeout", time.Duration(0))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)

	v.SetDefault("cache.path", "")

	v.SetDefault("validate.enabled", true)
	v.SetDefault("validate.target", "en")
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env (if present) and the optional config file into v, then
// decodes and validates the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyBackendDefaults()

	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyBackendDefaults() {
	c.Model.Backend = strings.ToLower(strings.TrimSpace(c.Model.Backend))
	if c.Model.BaseURL != "" {
		return
	}
	switch c.Model.Backend {
	case BackendOllama:
		c.Model.BaseURL = DefaultOllamaURL
	case BackendOpenAI:
		c.Model.BaseURL = DefaultOpenAIURL
	}
}

// Check rejects settings the service cannot start with.
func (c *Config) Check() error {
	switch c.Model.Backend {
	case BackendOllama, BackendOpenAI:
	default:
		return fmt.Errorf("unknown model backend %q (want %s or %s)", c.Model.Backend, BackendOllama, BackendOpenAI)
	}
	if strings.TrimSpace(c.Model.Name) == "" {
		return fmt.Errorf("model name is required")
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("model max_tokens must be positive, got %d", c.Model.MaxTokens)
	}
	if strings.TrimSpace(c.Client.ServerURL) == "" {
		return fmt.Errorf("client server_url is required")
	}
	return nil
}
