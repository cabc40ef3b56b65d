// Package steps contains the pipeline steps of the upstream bot.
// Each step implements the pipeline.Step interface.
package steps

import (
	"log/slog"
	"strings"

	"github.com/tauri-apps/upstream-bot/internal/core/config"
	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
)

// Gatekeeper decides whether a parsed upstream command may run.
type Gatekeeper struct {
	members pipeline.MembershipChecker
	log     *slog.Logger
}

// NewGatekeeper creates a new gatekeeper step.
func NewGatekeeper(deps *pipeline.Dependencies) *Gatekeeper {
	return &Gatekeeper{
		members: deps.Members,
		log:     deps.Log().With("step", "gatekeeper"),
	}
}

// Name returns the step name.
func (s *Gatekeeper) Name() string {
	return "gatekeeper"
}

// Run checks, cheapest first, that the command is not self-triggered, does
// not target its own repository, comes from the trusted organization and was
// posted by one of its members.
func (s *Gatekeeper) Run(ctx *pipeline.Context) error {
	ev := ctx.Event
	cmd := ctx.Command
	if cmd == nil {
		return ctx.Skip("no command")
	}

	// Skip events triggered by bot authors to prevent loops.
	if isBotAuthor(ev, ctx.Config) {
		s.log.Debug("skipping command from bot", "author", ev.CommentAuthor)
		return ctx.Skip("command posted by a bot")
	}

	if strings.EqualFold(cmd.Owner, ev.Owner) && strings.EqualFold(cmd.Repo, ev.Repo) {
		return ctx.Skip("target is the source repository")
	}

	if !strings.EqualFold(ev.Owner, ctx.Config.Org) {
		return ctx.Skip("repository is outside the trusted organization")
	}

	if s.members == nil || !s.members.IsOrgMember(ctx.Ctx, ctx.Config.Org, ev.Sender) {
		s.log.Debug("sender is not an org member", "sender", ev.Sender, "org", ctx.Config.Org)
		return ctx.Skip("sender is not an organization member")
	}

	s.log.Info("running /upstream command",
		"target", cmd.Target(),
		"issue", ev.Issue().String(),
		"sender", ev.Sender,
	)

	source := ev.Issue()
	ctx.Target = &source
	ctx.Result.Target = &source
	return nil
}

// isBotAuthor returns true if the event was sent by a GitHub App or by one
// of the configured bot accounts.
func isBotAuthor(ev *pipeline.Event, cfg *config.Config) bool {
	if strings.EqualFold(ev.SenderType, "Bot") || strings.HasSuffix(ev.CommentAuthor, "[bot]") {
		return true
	}
	return cfg.IsBotUser(ev.CommentAuthor) || cfg.IsBotUser(ev.Sender)
}
