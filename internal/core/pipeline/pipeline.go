// Package pipeline provides the core pipeline engine for the upstream bot.
// It defines the Step interface and Context structure used by all pipeline steps.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/tauri-apps/upstream-bot/internal/core/config"
	"github.com/tauri-apps/upstream-bot/internal/integrations/github"
	"github.com/tauri-apps/upstream-bot/internal/utils/text"
)

// ErrSkipPipeline indicates that the pipeline should stop gracefully.
// This is not an error condition, just an early exit (e.g., no command, not authorized).
var ErrSkipPipeline = errors.New("skip remaining pipeline steps")

// Event kinds, as sent in the X-GitHub-Event header.
const (
	KindIssueComment = "issue_comment"
	KindIssues       = "issues"
)

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Name returns the unique identifier for this step.
	Name() string

	// Run executes the step's logic.
	// It should return ErrSkipPipeline to stop the pipeline gracefully,
	// or any other error to indicate failure.
	Run(ctx *Context) error
}

// Event is the part of a webhook delivery the steps look at.
type Event struct {
	Kind       string
	Action     string
	DeliveryID string

	// Repository the event happened in.
	Owner string
	Repo  string

	Number int
	Title  string
	Body   string
	URL    string
	Labels []string
	Author string

	Sender     string
	SenderType string // "User", "Bot" or "Organization"

	CommentBody   string
	CommentAuthor string
}

// Issue returns the ref of the issue the event is about.
func (e *Event) Issue() github.IssueRef {
	return github.IssueRef{Owner: e.Owner, Repo: e.Repo, Number: e.Number}
}

// Result holds the accumulated results from pipeline execution.
type Result struct {
	DeliveryID string           `json:"delivery_id"`
	Skipped    bool             `json:"skipped"`
	SkipReason string           `json:"skip_reason,omitempty"`
	MirrorURL  string           `json:"mirror_url,omitempty"`
	Target     *github.IssueRef `json:"target,omitempty"`
	Effects    []string         `json:"effects,omitempty"`
}

// Context carries data through the pipeline steps.
type Context struct {
	// Ctx is the Go context for cancellation and timeouts.
	Ctx context.Context

	// Event is the webhook event being processed.
	Event *Event

	// Config is the loaded configuration.
	Config *config.Config

	// Result accumulates the processing results.
	Result *Result

	// Command is set once a comment command has been parsed.
	Command *text.Command

	// OriginalURL is the back-reference read from a mirror issue body.
	OriginalURL string

	// Target is the issue the effect steps act on.
	Target *github.IssueRef
}

// NewContext creates a new pipeline context for an event.
func NewContext(ctx context.Context, event *Event, cfg *config.Config) *Context {
	return &Context{
		Ctx:    ctx,
		Event:  event,
		Config: cfg,
		Result: &Result{DeliveryID: event.DeliveryID},
	}
}

// Skip marks the result as skipped and returns ErrSkipPipeline.
func (c *Context) Skip(reason string) error {
	c.Result.Skipped = true
	c.Result.SkipReason = reason
	return ErrSkipPipeline
}

// Record appends a description of an applied effect to the result.
func (c *Context) Record(format string, args ...any) {
	c.Result.Effects = append(c.Result.Effects, fmt.Sprintf(format, args...))
}

// Pipeline executes a sequence of steps.
type Pipeline struct {
	steps []Step
}

// New creates a new pipeline with the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Run executes all steps in order.
// Stops on the first error (unless it's ErrSkipPipeline, which is graceful).
// Effects of steps that already ran are not rolled back.
func (p *Pipeline) Run(ctx *Context) error {
	for _, step := range p.steps {
		if err := step.Run(ctx); err != nil {
			if errors.Is(err, ErrSkipPipeline) {
				// Graceful early exit
				return nil
			}
			return fmt.Errorf("step '%s' failed: %w", step.Name(), err)
		}
	}
	return nil
}

// Steps returns the list of steps (for introspection).
func (p *Pipeline) Steps() []Step {
	return p.steps
}
