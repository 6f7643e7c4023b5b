// Package cmdconfig holds the flags shared by every wellchat subcommand and
// turns them into a loaded config, a logger and a generator.
package cmdconfig

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/wellchat/pkg/config"
	"github.com/papercomputeco/wellchat/pkg/conversation"
	"github.com/papercomputeco/wellchat/pkg/gemini"
)

// Options are the persistent root flags.
type Options struct {
	ConfigPath string
	Debug      bool
	APIKey     string
	Model      string
	BaseURL    string
}

// AddFlags registers the options as persistent flags of cmd.
func (o *Options) AddFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.ConfigPath, "config", "c", "", "Path to config file (default: $XDG_CONFIG_HOME/wellchat/config.toml)")
	flags.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	flags.StringVar(&o.APIKey, "api-key", "", "Generation API key (prefer "+config.EnvAPIKey+")")
	flags.StringVar(&o.Model, "model", "", "Model to ask (default: "+gemini.DefaultModel+")")
	flags.StringVar(&o.BaseURL, "base-url", "", "Generation API base URL")
}

// Load reads .env, the config file and the environment, then applies flags.
func (o *Options) Load() (*config.Config, error) {
	config.LoadDotEnv()

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if o.Debug {
		cfg.Debug = true
	}
	if o.APIKey != "" {
		cfg.Gemini.APIKey = o.APIKey
	}
	if o.Model != "" {
		cfg.Gemini.Model = o.Model
	}
	if o.BaseURL != "" {
		cfg.Gemini.BaseURL = o.BaseURL
	}

	return cfg, nil
}

// WatchPath returns the config file worth watching, or "" when there is none
// on disk.
func (o *Options) WatchPath() string {
	path := o.ConfigPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return ""
		}
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// NewGenerator builds the generation client from cfg.
func NewGenerator(cfg *config.Config, logger *zap.Logger) (*gemini.Client, error) {
	client, err := gemini.New(cfg.GeminiClientConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("could not create generation client (set %s or %s): %w",
			config.EnvAPIKey, config.EnvGeminiAPIKey, err)
	}
	return client, nil
}

// NewController builds a session controller answering with generator.
func NewController(cfg *config.Config, generator conversation.Generator, logger *zap.Logger) *conversation.Controller {
	return conversation.New(generator,
		conversation.WithLogger(logger),
		conversation.WithSuggestions(cfg.Chat.Suggestions),
	)
}
