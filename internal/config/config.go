package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/lexcodex/nlcommand/framework"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "nlcommand.yaml"

// EnvPrefix namespaces every environment override.
const EnvPrefix = "NLCOMMAND_"

// Model providers.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// defaultModels names the model used per provider when none is configured.
var defaultModels = map[string]string{
	ProviderOllama: "llama3.1",
	ProviderGemini: "gemini-2.5-flash",
}

// Config captures every knob shared by the CLI, console, and HTTP server.
type Config struct {
	Server  ServerConfig            `yaml:"server" envPrefix:"SERVER_"`
	Model   ModelConfig             `yaml:"model" envPrefix:"MODEL_"`
	Logging framework.LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
	History HistoryConfig           `yaml:"history" envPrefix:"HISTORY_"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// ModelConfig selects and tunes the language model behind the invoker.
type ModelConfig struct {
	Provider    string        `yaml:"provider" env:"PROVIDER"`
	Name        string        `yaml:"name" env:"NAME"`
	Endpoint    string        `yaml:"endpoint,omitempty" env:"ENDPOINT"`
	APIKey      string        `yaml:"api_key,omitempty" env:"API_KEY"`
	Temperature float64       `yaml:"temperature" env:"TEMPERATURE"`
	MaxTokens   int           `yaml:"max_tokens" env:"MAX_TOKENS"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Debug       bool          `yaml:"debug" env:"DEBUG"`
}

// HistoryConfig controls the interpretation log.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
	Limit   int    `yaml:"limit" env:"LIMIT"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Model: ModelConfig{
			Provider:    ProviderOllama,
			Name:        defaultModels[ProviderOllama],
			Endpoint:    "http://localhost:11434",
			Temperature: 0.1,
			MaxTokens:   512,
			Timeout:     45 * time.Second,
		},
		Logging: framework.LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(".nlcommand", "history.db"),
			Limit:   50,
		},
	}
}

// Load reads path over the defaults, then applies NLCOMMAND_* environment
// overrides and normalizes the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads overrides from NLCOMMAND_* environment variables. Unset
// variables leave the target untouched.
func ParseEnv(target *Config) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(path string, cfg Config) error {
	if path == "" {
		return fmt.Errorf("config path required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Normalize fills missing defaults and rejects values no component can use.
func (c *Config) Normalize() error {
	def := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = def.Server.RequestTimeout
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}

	c.Model.Provider = strings.ToLower(strings.TrimSpace(c.Model.Provider))
	switch c.Model.Provider {
	case "":
		c.Model.Provider = ProviderOllama
	case ProviderOllama, ProviderGemini:
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	// The built-in default names an Ollama model; swap it when only the
	// provider was changed.
	if c.Model.Name == "" || (c.Model.Provider != ProviderOllama && c.Model.Name == def.Model.Name) {
		c.Model.Name = defaultModels[c.Model.Provider]
	}
	if c.Model.Provider == ProviderOllama && c.Model.Endpoint == "" {
		c.Model.Endpoint = def.Model.Endpoint
	}
	if c.Model.Temperature < 0 {
		return fmt.Errorf("model temperature must not be negative")
	}
	if c.Model.MaxTokens < 0 {
		c.Model.MaxTokens = 0
	}

	if _, err := framework.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "":
		c.Logging.Format = def.Logging.Format
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}

	if c.History.Path == "" {
		c.History.Path = def.History.Path
	}
	if c.History.Limit <= 0 {
		c.History.Limit = def.History.Limit
	}
	return nil
}
