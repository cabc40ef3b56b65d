package steps

import (
	"fmt"
	"log/slog"

	"github.com/tauri-apps/upstream-bot/internal/core/config"
	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
)

// Labeler adds or removes one state label on the target issue.
type Labeler struct {
	name   string
	label  func(cfg *config.Config) string
	remove bool
	gh     pipeline.IssueWriter
	dryRun bool
	log    *slog.Logger
}

// NewUpstreamLabeler marks the source issue as upstreamed.
func NewUpstreamLabeler(deps *pipeline.Dependencies) *Labeler {
	return newLabeler("upstream_labeler", deps, upstreamLabel, false)
}

// NewResolvedLabeler marks the original issue as resolved upstream.
func NewResolvedLabeler(deps *pipeline.Dependencies) *Labeler {
	return newLabeler("resolved_labeler", deps, upstreamResolvedLabel, false)
}

// NewUpstreamUnlabeler clears the pending upstream label from the original issue.
func NewUpstreamUnlabeler(deps *pipeline.Dependencies) *Labeler {
	return newLabeler("upstream_unlabeler", deps, upstreamLabel, true)
}

func upstreamLabel(cfg *config.Config) string         { return cfg.Labels.Upstream }
func upstreamResolvedLabel(cfg *config.Config) string { return cfg.Labels.UpstreamResolved }

func newLabeler(name string, deps *pipeline.Dependencies, label func(cfg *config.Config) string, remove bool) *Labeler {
	return &Labeler{
		name:   name,
		label:  label,
		remove: remove,
		gh:     deps.GitHub,
		dryRun: deps.DryRun,
		log:    deps.Log().With("step", name),
	}
}

// Name returns the step name.
func (s *Labeler) Name() string {
	return s.name
}

// Run applies the label change.
func (s *Labeler) Run(ctx *pipeline.Context) error {
	target := ctx.Target
	if target == nil {
		return fmt.Errorf("no target issue to label")
	}
	label := s.label(ctx.Config)

	verb := "added"
	if s.remove {
		verb = "removed"
	}

	if s.dryRun {
		s.log.Info("DRY RUN: would change label", "issue", target.String(), "label", label, "remove", s.remove)
		ctx.Record("dry run: %s label %s on %s", verb, label, target)
		return nil
	}

	if s.gh == nil {
		return fmt.Errorf("GitHub client required to change labels")
	}

	var err error
	if s.remove {
		err = s.gh.RemoveLabel(ctx.Ctx, target.Owner, target.Repo, target.Number, label)
	} else {
		err = s.gh.AddLabels(ctx.Ctx, target.Owner, target.Repo, target.Number, []string{label})
	}
	if err != nil {
		return err
	}

	ctx.Record("%s label %s on %s", verb, label, target)
	return nil
}
