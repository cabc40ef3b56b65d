// Package config handles loading the upstream bot configuration.
//
// Values come from three layers, later ones winning: built-in defaults, an
// optional YAML file (with ${VAR} expansion), and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Built-in values for the organization the bot serves.
const (
	DefaultOrg                   = "tauri-apps"
	DefaultAppBot                = "tauri-apps[bot]"
	DefaultBotAccount            = "tauri-bot"
	DefaultUpstreamLabel         = "upstream"
	DefaultUpstreamResolvedLabel = "upstream-resolved"
)

// Config is the root configuration structure.
type Config struct {
	// Org is the trusted organization. Only its members may upstream issues,
	// and only its repositories take part in mirroring.
	Org string `yaml:"org"`

	// BotUsers are the logins the bot posts as. Mirror issues authored by any
	// of them are reconciled when closed. Two names are kept because the bot
	// account was renamed once.
	BotUsers []string `yaml:"bot_users,omitempty"`

	// Labels names the state labels applied to original issues.
	Labels LabelsConfig `yaml:"labels"`

	// GitHub holds API credentials and endpoints.
	GitHub GitHubConfig `yaml:"github"`

	// Server configures the webhook listener.
	Server ServerConfig `yaml:"server"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	// DryRun logs the effects instead of calling the API.
	DryRun bool `yaml:"dry_run" env:"UPSTREAM_BOT_DRY_RUN"`
}

// LabelsConfig holds the state label names.
type LabelsConfig struct {
	Upstream         string `yaml:"upstream"`
	UpstreamResolved string `yaml:"upstream_resolved"`
}

// GitHubConfig holds API credentials and endpoints.
type GitHubConfig struct {
	// Token is used for comments, labels and URL resolution.
	Token string `yaml:"token" env:"GITHUB_TOKEN"`

	// BotToken belongs to the bot account that opens mirror issues and looks
	// up org membership. Falls back to Token when empty.
	BotToken string `yaml:"bot_token" env:"UPSTREAM_BOT_TOKEN"`

	WebhookSecret string `yaml:"webhook_secret" env:"GITHUB_WEBHOOK_SECRET"`

	// APIURL and GraphQLURL override the public endpoints (GitHub Enterprise).
	APIURL     string `yaml:"api_url,omitempty" env:"GITHUB_API_URL"`
	GraphQLURL string `yaml:"graphql_url,omitempty" env:"GITHUB_GRAPHQL_URL"`
}

// ServerConfig configures the webhook listener.
type ServerConfig struct {
	Addr           string        `yaml:"addr" env:"UPSTREAM_BOT_ADDR"`
	WebhookPath    string        `yaml:"webhook_path"`
	HandlerTimeout time.Duration `yaml:"handler_timeout" env:"UPSTREAM_BOT_HANDLER_TIMEOUT"`
}

// Load reads a config file, expands environment variables in it, overlays
// the process environment and applies defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = &Config{}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		cfg, err = parseRaw(data)
		if err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// FindConfigPath searches for a config file in standard locations.
func FindConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	candidates := []string{
		".github/upstream-bot.yaml",
		".github/upstream-bot.yml",
		"upstream-bot.yaml",
		"upstream-bot.yml",
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			abs, _ := filepath.Abs(c)
			return abs
		}
	}

	return ""
}

// Validate checks the settings needed to talk to GitHub.
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return errors.New("github token is required (set GITHUB_TOKEN)")
	}
	if strings.TrimSpace(c.Org) == "" {
		return errors.New("org cannot be empty")
	}
	return nil
}

// IsBotUser reports whether login is one of the configured bot identities.
func (c *Config) IsBotUser(login string) bool {
	for _, u := range c.BotUsers {
		if strings.EqualFold(login, u) {
			return true
		}
	}
	return false
}

// parseRaw decodes YAML after expanding environment variables.
func parseRaw(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Default returns a configuration holding only the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults sets default values for unset fields.
func (c *Config) applyDefaults() {
	if c.Org == "" {
		c.Org = DefaultOrg
	}
	if len(c.BotUsers) == 0 {
		c.BotUsers = []string{DefaultAppBot, DefaultBotAccount}
	}
	if c.Labels.Upstream == "" {
		c.Labels.Upstream = DefaultUpstreamLabel
	}
	if c.Labels.UpstreamResolved == "" {
		c.Labels.UpstreamResolved = DefaultUpstreamResolvedLabel
	}
	if c.GitHub.BotToken == "" {
		c.GitHub.BotToken = c.GitHub.Token
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.WebhookPath == "" {
		c.Server.WebhookPath = "/webhook"
	}
	if c.Server.HandlerTimeout == 0 {
		c.Server.HandlerTimeout = 30 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
