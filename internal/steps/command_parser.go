package steps

import (
	"log/slog"

	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
	"github.com/tauri-apps/upstream-bot/internal/utils/text"
)

// CommandParser extracts the `/upstream owner/repo` command from a new comment.
type CommandParser struct {
	log *slog.Logger
}

// NewCommandParser creates a new command parser step.
func NewCommandParser(deps *pipeline.Dependencies) *CommandParser {
	return &CommandParser{
		log: deps.Log().With("step", "command_parser"),
	}
}

// Name returns the step name.
func (s *CommandParser) Name() string {
	return "command_parser"
}

// Run stops the pipeline unless the comment carries an upstream command.
func (s *CommandParser) Run(ctx *pipeline.Context) error {
	ev := ctx.Event
	if ev.Kind != pipeline.KindIssueComment || ev.Action != "created" {
		return ctx.Skip("not a new comment")
	}

	cmd, ok := text.ParseCommand(ev.CommentBody)
	if !ok {
		return ctx.Skip("no command in comment")
	}
	if cmd.Name != text.UpstreamCommand {
		s.log.Debug("ignoring unknown command", "command", cmd.Name)
		return ctx.Skip("unknown command")
	}

	ctx.Command = &cmd
	return nil
}
