package commands

import (
	"fmt"
	"log/slog"

	"github.com/tauri-apps/upstream-bot/internal/core/config"
	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
	"github.com/tauri-apps/upstream-bot/internal/integrations/github"
)

// newDependencies builds the GitHub clients for the pipeline. Comments,
// labels and URL lookups use the app token; mirror issues and membership
// checks use the bot account token.
func newDependencies(cfg *config.Config, logger *slog.Logger, dryRun bool) (*pipeline.Dependencies, error) {
	app, err := github.New(github.Options{
		Token:      cfg.GitHub.Token,
		APIURL:     cfg.GitHub.APIURL,
		GraphQLURL: cfg.GitHub.GraphQLURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	bot := app
	if cfg.GitHub.BotToken != "" && cfg.GitHub.BotToken != cfg.GitHub.Token {
		bot, err = github.New(github.Options{
			Token:      cfg.GitHub.BotToken,
			APIURL:     cfg.GitHub.APIURL,
			GraphQLURL: cfg.GitHub.GraphQLURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bot account client: %w", err)
		}
	}

	return &pipeline.Dependencies{
		GitHub:     app,
		BotAccount: bot,
		Members:    bot,
		Resolver:   app,
		Logger:     logger,
		DryRun:     dryRun,
	}, nil
}
