// Package config loads TINAA configuration from a YAML file with
// TINAA_-prefixed environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aj-geddes/tinaa-playwright-msp/pkg/logging"
)

// Config is the root configuration for the TINAA service.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Browser BrowserConfig `mapstructure:"browser"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

// ServerConfig controls the HTTP/WebSocket surface.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// Address returns the host:port listen address.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BrowserConfig controls browser session defaults.
type BrowserConfig struct {
	Headless           bool     `mapstructure:"headless"`
	ViewportWidth      int      `mapstructure:"viewport_width"`
	ViewportHeight     int      `mapstructure:"viewport_height"`
	UserAgent          string   `mapstructure:"user_agent"`
	Locale             string   `mapstructure:"locale"`
	TimeoutMs          float64  `mapstructure:"timeout_ms"`
	MaxSessions        int      `mapstructure:"max_sessions"`
	AllowedURLPatterns []string `mapstructure:"allowed_url_patterns"`
}

// LLMConfig controls the optional insight-generation collaborator.
type LLMConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	Model           string `mapstructure:"model"`
	MaxPromptTokens int    `mapstructure:"max_prompt_tokens"`
}

// Enabled reports whether insight generation is configured.
func (l *LLMConfig) Enabled() bool {
	return l.APIKey != ""
}

// LoggerConfig controls the logging core.
type LoggerConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// LoggingConfig converts the section into the logging package's config.
func (l *LoggerConfig) LoggingConfig() logging.Config {
	return logging.Config{
		Level:            l.Level,
		Encoding:         l.Encoding,
		OutputPaths:      l.OutputPaths,
		ErrorOutputPaths: l.ErrorOutputPaths,
	}
}

// Load reads configuration from the given file path. A missing file is
// not an error: defaults plus environment overrides are used instead.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TINAA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the loaded configuration for impossible values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("invalid browser viewport: %dx%d",
			c.Browser.ViewportWidth, c.Browser.ViewportHeight)
	}
	if c.Browser.MaxSessions <= 0 {
		return fmt.Errorf("invalid max_sessions: %d", c.Browser.MaxSessions)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8765)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 720)
	v.SetDefault("browser.timeout_ms", 30000.0)
	v.SetDefault("browser.max_sessions", 5)

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.max_prompt_tokens", 8000)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
}
