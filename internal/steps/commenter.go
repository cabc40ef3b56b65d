package steps

import (
	"fmt"
	"log/slog"

	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
	"github.com/tauri-apps/upstream-bot/internal/utils/text"
)

// Commenter posts a rendered comment on the target issue.
type Commenter struct {
	name   string
	render func(ctx *pipeline.Context) string
	gh     pipeline.IssueWriter
	dryRun bool
	log    *slog.Logger
}

// NewUpstreamedCommenter tells the source issue where its mirror lives.
func NewUpstreamedCommenter(deps *pipeline.Dependencies) *Commenter {
	return newCommenter("upstreamed_commenter", deps, func(ctx *pipeline.Context) string {
		return text.IssueUpstreamedComment(ctx.Result.MirrorURL)
	})
}

// NewResolvedCommenter tells the original issue that its mirror was closed.
func NewResolvedCommenter(deps *pipeline.Dependencies) *Commenter {
	return newCommenter("resolved_commenter", deps, func(ctx *pipeline.Context) string {
		return text.UpstreamResolvedComment(ctx.Event.URL)
	})
}

func newCommenter(name string, deps *pipeline.Dependencies, render func(ctx *pipeline.Context) string) *Commenter {
	return &Commenter{
		name:   name,
		render: render,
		gh:     deps.GitHub,
		dryRun: deps.DryRun,
		log:    deps.Log().With("step", name),
	}
}

// Name returns the step name.
func (s *Commenter) Name() string {
	return s.name
}

// Run posts the comment.
func (s *Commenter) Run(ctx *pipeline.Context) error {
	target := ctx.Target
	if target == nil {
		return fmt.Errorf("no target issue to comment on")
	}
	body := s.render(ctx)

	if s.dryRun {
		s.log.Info("DRY RUN: would post comment", "issue", target.String(), "body", body)
		ctx.Record("dry run: comment on %s", target)
		return nil
	}

	if s.gh == nil {
		return fmt.Errorf("GitHub client required to post comment")
	}

	if err := s.gh.CreateComment(ctx.Ctx, target.Owner, target.Repo, target.Number, body); err != nil {
		return err
	}

	ctx.Record("commented on %s", target)
	s.log.Debug("posted comment", "issue", target.String())
	return nil
}
