// Package config loads wellchat settings from a TOML file and the environment.
//
// Precedence, lowest first: built-in defaults, the config file, environment
// variables (a .env file in the working directory is loaded into the
// environment first), then command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/papercomputeco/wellchat/pkg/conversation"
	"github.com/papercomputeco/wellchat/pkg/gemini"
	"github.com/papercomputeco/wellchat/pkg/llm"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey       = "WELLCHAT_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvModel        = "WELLCHAT_MODEL"
	EnvBaseURL      = "WELLCHAT_BASE_URL"
	EnvListen       = "WELLCHAT_LISTEN"
)

// Config is the full wellchat configuration.
type Config struct {
	Debug  bool         `toml:"debug"`
	Gemini GeminiConfig `toml:"gemini"`
	Chat   ChatConfig   `toml:"chat"`
	Server ServerConfig `toml:"server"`
}

// GeminiConfig configures the generation client.
type GeminiConfig struct {
	BaseURL string   `toml:"base_url"`
	Model   string   `toml:"model"`
	APIKey  string   `toml:"api_key"`
	Timeout Duration `toml:"timeout"`

	Temperature     *float64 `toml:"temperature"`
	MaxOutputTokens *int     `toml:"max_output_tokens"`
}

// ChatConfig configures the conversation.
type ChatConfig struct {
	Suggestions []string `toml:"suggestions"`
}

// ServerConfig configures `wellchat serve`.
type ServerConfig struct {
	ListenAddr string `toml:"listen"`
}

// Duration is a time.Duration written as a string such as "90s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gemini: GeminiConfig{
			BaseURL: gemini.DefaultBaseURL,
			Model:   gemini.DefaultModel,
			Timeout: Duration{gemini.DefaultTimeout},
		},
		Chat: ChatConfig{
			Suggestions: append([]string(nil), conversation.DefaultSuggestions...),
		},
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/wellchat/config.toml, or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve config directory: %w", err)
	}
	return filepath.Join(dir, "wellchat", "config.toml"), nil
}

// Load reads the file at path over the defaults. An empty path means
// DefaultPath, which may be absent; an explicit path must exist. Unknown keys
// are an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, nil
		}
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("could not load config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// ApplyEnv overrides cfg with environment variables. WELLCHAT_API_KEY wins
// over GEMINI_API_KEY.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvGeminiAPIKey); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Gemini.BaseURL = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Server.ListenAddr = v
	}
}

// GeminiClientConfig converts the [gemini] section for gemini.New.
func (c *Config) GeminiClientConfig() gemini.Config {
	gc := gemini.Config{
		BaseURL: c.Gemini.BaseURL,
		Model:   c.Gemini.Model,
		APIKey:  c.Gemini.APIKey,
		Timeout: c.Gemini.Timeout.Duration,
	}
	if c.Gemini.Temperature != nil || c.Gemini.MaxOutputTokens != nil {
		gc.GenerationConfig = &llm.GenerationConfig{
			Temperature:     c.Gemini.Temperature,
			MaxOutputTokens: c.Gemini.MaxOutputTokens,
		}
	}
	return gc
}
