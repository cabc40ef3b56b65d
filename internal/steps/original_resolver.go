package steps

import (
	"fmt"
	"log/slog"

	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
)

// OriginalResolver finds the issue a mirror points back to.
type OriginalResolver struct {
	resolver pipeline.IssueResolver
	log      *slog.Logger
}

// NewOriginalResolver creates a new original resolver step.
func NewOriginalResolver(deps *pipeline.Dependencies) *OriginalResolver {
	return &OriginalResolver{
		resolver: deps.Resolver,
		log:      deps.Log().With("step", "original_resolver"),
	}
}

// Name returns the step name.
func (s *OriginalResolver) Name() string {
	return "original_resolver"
}

// Run sets the original issue as the target of the following steps. An URL
// that resolves to nothing ends the pipeline quietly.
func (s *OriginalResolver) Run(ctx *pipeline.Context) error {
	if s.resolver == nil {
		return fmt.Errorf("GitHub client required to resolve %s", ctx.OriginalURL)
	}

	ref, err := s.resolver.ResolveIssueURL(ctx.Ctx, ctx.OriginalURL)
	if err != nil {
		return err
	}
	if ref == nil {
		s.log.Debug("original issue not found", "url", ctx.OriginalURL)
		return ctx.Skip("original issue not found")
	}

	s.log.Info("reconciling closed mirror", "mirror", ctx.Event.URL, "original", ref.String())
	ctx.Target = ref
	ctx.Result.Target = ref
	return nil
}
