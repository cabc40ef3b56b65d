// Package pipeline provides step registration and preset workflow building.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	gogithub "github.com/google/go-github/v60/github"

	"github.com/tauri-apps/upstream-bot/internal/integrations/github"
)

// Registry holds registered step factories.
// Step factories create Step instances, allowing for dependency injection.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]StepFactory
}

// StepFactory is a function that creates a Step.
// It receives dependencies (like clients, config) as parameters.
type StepFactory func(deps *Dependencies) (Step, error)

// IssueWriter performs the issue mutations.
type IssueWriter interface {
	CreateIssue(ctx context.Context, owner, repo, title, body string, labels []string) (*gogithub.Issue, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) error
	AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error
	RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error
}

// MembershipChecker answers org membership questions. Implementations must
// return false when the lookup fails.
type MembershipChecker interface {
	IsOrgMember(ctx context.Context, org, user string) bool
}

// IssueResolver turns an issue URL into a ref. A nil ref with a nil error
// means there is no such issue.
type IssueResolver interface {
	ResolveIssueURL(ctx context.Context, rawURL string) (*github.IssueRef, error)
}

// Dependencies holds the dependencies that can be injected into steps.
type Dependencies struct {
	// GitHub comments and labels as the app installation.
	GitHub IssueWriter

	// BotAccount opens mirror issues. Falls back to GitHub when nil.
	BotAccount IssueWriter

	Members  MembershipChecker
	Resolver IssueResolver

	Logger *slog.Logger
	DryRun bool
}

// MirrorWriter returns the client mirror issues are opened with.
func (d *Dependencies) MirrorWriter() IssueWriter {
	if d.BotAccount != nil {
		return d.BotAccount
	}
	return d.GitHub
}

// Log returns the configured logger or the default one.
func (d *Dependencies) Log() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// NewRegistry creates a new step registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]StepFactory),
	}
}

// Register adds a step factory to the registry.
func (r *Registry) Register(name string, factory StepFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get retrieves a step factory by name.
func (r *Registry) Get(name string) (StepFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	return factory, ok
}

// BuildFromNames creates a pipeline from a list of step names.
func (r *Registry) BuildFromNames(names []string, deps *Dependencies) (*Pipeline, error) {
	var steps []Step
	for _, name := range names {
		factory, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown step: %s", name)
		}
		step, err := factory(deps)
		if err != nil {
			return nil, fmt.Errorf("failed to create step '%s': %w", name, err)
		}
		steps = append(steps, step)
	}
	return New(steps...), nil
}

// Preset names.
const (
	PresetUpstreamCommand = "upstream-command"
	PresetUpstreamResolve = "upstream-resolve"
)

// Presets defines the built-in workflows. Gate steps come first and end the
// run with ErrSkipPipeline; the remaining steps are effects, in order.
var Presets = map[string][]string{
	// upstream-command: `/upstream owner/repo` on an issue comment
	PresetUpstreamCommand: {
		"command_parser",
		"gatekeeper",
		"mirror_creator",
		"upstreamed_commenter",
		"upstream_labeler",
	},

	// upstream-resolve: a mirror issue was closed
	PresetUpstreamResolve: {
		"mirror_detector",
		"original_resolver",
		"resolved_commenter",
		"resolved_labeler",
		"upstream_unlabeler",
	},
}

// GetPreset returns the step names for a preset workflow.
func GetPreset(name string) ([]string, bool) {
	steps, ok := Presets[name]
	return steps, ok
}

// PresetFor returns the preset handling an event kind and action.
func PresetFor(kind, action string) (string, bool) {
	switch {
	case kind == KindIssueComment && action == "created":
		return PresetUpstreamCommand, true
	case kind == KindIssues && action == "closed":
		return PresetUpstreamResolve, true
	}
	return "", false
}
