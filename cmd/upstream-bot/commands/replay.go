package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tauri-apps/upstream-bot/internal/bot"
	"github.com/tauri-apps/upstream-bot/internal/core/event"
	"github.com/tauri-apps/upstream-bot/internal/core/pipeline"
	"github.com/tauri-apps/upstream-bot/internal/tui"
)

var (
	replayEvent   string
	replayPayload string
	replayDryRun  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run a saved webhook payload through the pipeline",
	Long: `Replay a webhook delivery saved to a file, e.g. from the app's
"Recent Deliveries" page. Use --dry-run to see what the bot would do without
touching any issue.`,
	Example: `  upstream-bot replay --event issue_comment --payload delivery.json --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVar(&replayEvent, "event", "", "Event kind (X-GitHub-Event): issue_comment or issues")
	replayCmd.Flags().StringVar(&replayPayload, "payload", "", "Path to the webhook payload JSON file")
	replayCmd.Flags().BoolVar(&replayDryRun, "dry-run", false, "Log effects instead of calling the GitHub API")
	_ = replayCmd.MarkFlagRequired("event")
	_ = replayCmd.MarkFlagRequired("payload")
}

// statusReportingStep forwards step progress to the terminal UI.
type statusReportingStep struct {
	inner   pipeline.Step
	updates chan<- tui.StepMsg
}

func (s *statusReportingStep) Name() string {
	return s.inner.Name()
}

func (s *statusReportingStep) Run(ctx *pipeline.Context) error {
	s.send(ctx, tui.StepMsg{Step: s.Name(), Status: tui.StatusStarted})

	err := s.inner.Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrSkipPipeline):
		s.send(ctx, tui.StepMsg{Step: s.Name(), Status: tui.StatusSkipped, Message: ctx.Result.SkipReason})
	case err != nil:
		s.send(ctx, tui.StepMsg{Step: s.Name(), Status: tui.StatusError, Message: err.Error()})
	default:
		s.send(ctx, tui.StepMsg{Step: s.Name(), Status: tui.StatusSuccess, Message: "Completed"})
	}
	return err
}

// send drops the update once the UI has gone away.
func (s *statusReportingStep) send(ctx *pipeline.Context, msg tui.StepMsg) {
	select {
	case s.updates <- msg:
	case <-ctx.Ctx.Done():
	}
}

func runReplay(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(replayPayload)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	ev, err := event.Parse(replayEvent, "replay-"+uuid.NewString(), payload)
	if err != nil {
		return err
	}

	dryRun := cfg.DryRun || replayDryRun
	if err := cfg.Validate(); err != nil && !dryRun {
		return err
	}

	// The TUI owns the terminal, so logs are only shown in CI mode.
	interactive := !isCI()
	if interactive {
		cfg.LogLevel = "error"
	}
	logger := newLogger(cfg)

	deps, err := newDependencies(cfg, logger, dryRun)
	if err != nil {
		return err
	}

	if !interactive {
		result, err := bot.NewDispatcher(cfg, deps).Dispatch(ctx, ev)
		if result != nil {
			fmt.Fprintln(out, summarize(result))
		}
		return err
	}

	updates := make(chan tui.StepMsg)
	dispatcher := bot.NewDispatcher(cfg, deps, bot.WithStepWrapper(func(step pipeline.Step) pipeline.Step {
		return &statusReportingStep{inner: step, updates: updates}
	}))

	model := tui.NewModel("Upstream Bot Pipeline", dispatcher.Steps(ev), updates)
	p := tea.NewProgram(model, tea.WithOutput(out))

	// Quitting the UI cancels the pipeline so the dispatch goroutine never
	// waits on a reader that is gone.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	finished := make(chan struct{})
	go func() {
		defer close(finished)

		result, err := dispatcher.Dispatch(runCtx, ev)
		close(updates)

		var summary string
		if result != nil {
			summary = summarize(result)
		}
		p.Send(tui.DoneMsg{Err: err, Summary: summary})
	}()

	final, err := p.Run()
	cancel()
	<-finished
	if err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if m, ok := final.(tui.Model); ok {
		return m.Err()
	}
	return nil
}

// summarize renders the result as indented JSON.
func summarize(result *pipeline.Result) string {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", *result)
	}
	return string(data)
}
