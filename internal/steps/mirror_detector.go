package steps

import (
	"log/slog"
	"strings"

	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
	"github.com/tauri-apps/upstream-bot/internal/integrations/github"
	"github.com/tauri-apps/upstream-bot/internal/utils/text"
)

// MirrorDetector recognizes closed mirror issues and reads their back-reference.
type MirrorDetector struct {
	log *slog.Logger
}

// NewMirrorDetector creates a new mirror detector step.
func NewMirrorDetector(deps *pipeline.Dependencies) *MirrorDetector {
	return &MirrorDetector{
		log: deps.Log().With("step", "mirror_detector"),
	}
}

// Name returns the step name.
func (s *MirrorDetector) Name() string {
	return "mirror_detector"
}

// Run continues only for issues of the trusted organization that the bot
// opened with a mirror body.
func (s *MirrorDetector) Run(ctx *pipeline.Context) error {
	ev := ctx.Event
	if ev.Kind != pipeline.KindIssues || ev.Action != "closed" {
		return ctx.Skip("not a closed issue")
	}

	if !strings.EqualFold(ev.Owner, ctx.Config.Org) {
		return ctx.Skip("repository is outside the trusted organization")
	}

	if !ctx.Config.IsBotUser(ev.Author) {
		return ctx.Skip("issue was not opened by the bot")
	}

	if !text.IsUpstreamIssueBody(ev.Body) {
		return ctx.Skip("not a mirror issue")
	}

	originalURL, ok := text.ParseUpstreamIssueBody(ev.Body)
	if !ok || github.ParseIssueURL(originalURL) == nil {
		s.log.Debug("mirror body has no issue link", "mirror", ev.URL)
		return ctx.Skip("mirror body does not link an issue")
	}

	s.log.Debug("closed mirror issue", "mirror", ev.URL, "original", originalURL)
	ctx.OriginalURL = originalURL
	return nil
}
