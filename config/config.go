// Package config loads bookwriter settings from defaults, an optional YAML
// file, an optional .env file and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	bookwriter "github.com/opd-ai/bookwriter/src"
)

type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type LLMConfig struct {
	Provider  string `mapstructure:"provider"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	TLS          bool          `mapstructure:"tls"`
	CertFile     string        `mapstructure:"cert_file"`
	KeyFile      string        `mapstructure:"key_file"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type SessionConfig struct {
	Store string        `mapstructure:"store"`
	TTL   time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Load reads the configuration. configFile and envFile may be empty; a
// missing envFile is ignored.
func Load(configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOOKWRITER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Names used by earlier deployments.
	_ = v.BindEnv("llm.api_key", "BOOKWRITER_LLM_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "CLAUDE_API_KEY")
	_ = v.BindEnv("server.password", "BOOKWRITER_SERVER_PASSWORD", "APP_PASSWORD", "STREAMLIT_APP_PASSWORD")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", bookwriter.ProviderOpenAI)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_tokens", 4096)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.password", "")
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_file", "certs/server.crt")
	v.SetDefault("server.key_file", "certs/server.key")
	v.SetDefault("server.read_timeout", "30s")
	// Generating a whole book happens inside one request.
	v.SetDefault("server.write_timeout", "30m")

	v.SetDefault("session.store", StoreMemory)
	v.SetDefault("session.ttl", "24h")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks the settings needed to talk to a completion provider and
// serve sessions.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case bookwriter.ProviderOpenAI, bookwriter.ProviderClaude:
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return errors.New("llm.api_key is required (set OPENAI_API_KEY or BOOKWRITER_LLM_API_KEY)")
	}
	switch c.Session.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unknown session.store %q", c.Session.Store)
	}
	return nil
}

// ClientConfig returns the completion client settings.
func (c *Config) ClientConfig() bookwriter.ClientConfig {
	return bookwriter.ClientConfig{
		Provider:  c.LLM.Provider,
		APIKey:    c.LLM.APIKey,
		Model:     c.LLM.Model,
		BaseURL:   c.LLM.BaseURL,
		MaxTokens: c.LLM.MaxTokens,
	}
}
