// Package commands implements the upstream-bot CLI.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tauri-apps/upstream-bot/internal/core/config"
	"github.com/tauri-apps/upstream-bot/internal/logging"
)

var (
	cfgFile  string
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "upstream-bot",
	Short: "Mirror issues between the repositories of a GitHub organization",
	Long: `upstream-bot listens for GitHub webhooks. Organization members comment
"/upstream owner/repo" on an issue to open a mirror of it in another
repository. When the mirror is closed, the original issue is told so and
relabeled.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: .github/upstream-bot.yaml or upstream-bot.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the .env file, the config file and the environment, in
// that order, then applies flag overrides.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	path := config.FindConfigPath(cfgFile)
	if cfgFile != "" && path == "" {
		return nil, fmt.Errorf("config file not found: %s", cfgFile)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// newLogger builds the process logger and installs it as the slog default.
func newLogger(cfg *config.Config) *slog.Logger {
	logger := logging.NewLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel), isCI())
	slog.SetDefault(logger)
	return logger
}

// isCI reports whether the process runs in a non-interactive CI environment.
func isCI() bool {
	return os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
}
