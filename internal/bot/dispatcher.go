// Package bot routes webhook events to the pipeline preset that handles them.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tauri-apps/upstream-bot/internal/core/config"
	"github.com/tauri-apps/upstream-bot/internal/core/event"
	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
	"github.com/tauri-apps/upstream-bot/internal/steps"
)

// StepWrapper decorates every step of a built pipeline.
type StepWrapper func(pipeline.Step) pipeline.Step

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStepWrapper wraps each step before the pipeline runs, e.g. to report
// progress to a terminal UI.
func WithStepWrapper(wrap StepWrapper) Option {
	return func(d *Dispatcher) {
		d.wrap = wrap
	}
}

// WithRegistry replaces the built-in step registry.
func WithRegistry(r *pipeline.Registry) Option {
	return func(d *Dispatcher) {
		d.registry = r
	}
}

// Dispatcher runs the preset pipeline matching each event. It is safe for
// concurrent use.
type Dispatcher struct {
	cfg      *config.Config
	deps     *pipeline.Dependencies
	registry *pipeline.Registry
	wrap     StepWrapper
	log      *slog.Logger
}

// NewDispatcher creates a dispatcher with all built-in steps registered.
func NewDispatcher(cfg *config.Config, deps *pipeline.Dependencies, opts ...Option) *Dispatcher {
	registry := pipeline.NewRegistry()
	steps.RegisterAll(registry)

	d := &Dispatcher{
		cfg:      cfg,
		deps:     deps,
		registry: registry,
		log:      deps.Log(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handles reports whether an event kind and action has a preset.
func (d *Dispatcher) Handles(kind, action string) bool {
	_, ok := pipeline.PresetFor(kind, action)
	return ok
}

// Steps returns the step names that would run for an event.
func (d *Dispatcher) Steps(ev *pipeline.Event) []string {
	preset, ok := pipeline.PresetFor(ev.Kind, ev.Action)
	if !ok {
		return nil
	}
	names, _ := pipeline.GetPreset(preset)
	return names
}

// Dispatch runs the pipeline for ev and logs its outcome. Skips are not
// errors. A panic inside a step is recovered and returned as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *pipeline.Event) (result *pipeline.Result, err error) {
	log := d.log.With(
		"delivery", ev.DeliveryID,
		"event", ev.Kind+"."+ev.Action,
		"issue", ev.Issue().String(),
	)

	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("panic while handling event: %v", v)
			log.Error("panic recovered", "panic", v)
		}
	}()

	preset, ok := pipeline.PresetFor(ev.Kind, ev.Action)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", event.ErrUnsupportedEvent, ev.Kind, ev.Action)
	}

	names, ok := pipeline.GetPreset(preset)
	if !ok {
		return nil, fmt.Errorf("unknown preset: %s", preset)
	}

	p, err := d.registry.BuildFromNames(names, d.deps)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline %s: %w", preset, err)
	}
	if d.wrap != nil {
		wrapped := make([]pipeline.Step, 0, len(p.Steps()))
		for _, step := range p.Steps() {
			wrapped = append(wrapped, d.wrap(step))
		}
		p = pipeline.New(wrapped...)
	}

	pctx := pipeline.NewContext(ctx, ev, d.cfg)
	if err := p.Run(pctx); err != nil {
		log.Error("pipeline failed", "preset", preset, "effects", pctx.Result.Effects, "error", err)
		return pctx.Result, err
	}

	if pctx.Result.Skipped {
		log.Debug("pipeline skipped", "preset", preset, "reason", pctx.Result.SkipReason)
	} else {
		log.Info("pipeline completed", "preset", preset, "effects", pctx.Result.Effects)
	}
	return pctx.Result, nil
}
