package steps

import (
	"fmt"
	"log/slog"

	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
	"github.com/tauri-apps/upstream-bot/internal/utils/text"
)

// MirrorCreator opens the mirror issue in the target repository.
type MirrorCreator struct {
	gh     pipeline.IssueWriter
	dryRun bool
	log    *slog.Logger
}

// NewMirrorCreator creates a new mirror creator step.
func NewMirrorCreator(deps *pipeline.Dependencies) *MirrorCreator {
	return &MirrorCreator{
		gh:     deps.MirrorWriter(),
		dryRun: deps.DryRun,
		log:    deps.Log().With("step", "mirror_creator"),
	}
}

// Name returns the step name.
func (s *MirrorCreator) Name() string {
	return "mirror_creator"
}

// Run creates an issue with the source title and labels, whose body links
// back to the source issue.
func (s *MirrorCreator) Run(ctx *pipeline.Context) error {
	cmd := ctx.Command
	if cmd == nil {
		return fmt.Errorf("no command to execute")
	}

	ev := ctx.Event
	body := text.UpstreamIssueBody(ev.URL, ev.Body)

	if s.dryRun {
		s.log.Info("DRY RUN: would create mirror issue", "repo", cmd.Target(), "title", ev.Title, "labels", ev.Labels)
		ctx.Result.MirrorURL = fmt.Sprintf("<new issue in %s>", cmd.Target())
		ctx.Record("dry run: create issue in %s", cmd.Target())
		return nil
	}

	if s.gh == nil {
		return fmt.Errorf("GitHub client required to create mirror issue")
	}

	issue, err := s.gh.CreateIssue(ctx.Ctx, cmd.Owner, cmd.Repo, ev.Title, body, ev.Labels)
	if err != nil {
		return err
	}

	ctx.Result.MirrorURL = issue.GetHTMLURL()
	ctx.Record("created mirror issue %s", ctx.Result.MirrorURL)
	s.log.Info("created mirror issue", "url", ctx.Result.MirrorURL, "source", ev.URL)
	return nil
}
