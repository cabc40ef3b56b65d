// Package tui renders pipeline progress for local replays.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#24C8DB")
	subtleColor  = lipgloss.Color("#626262")
	successColor = lipgloss.Color("#04B575")
	errorColor   = lipgloss.Color("#FF0000")

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	activeStepStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	doneStepStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStepStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// Status is the state of one pipeline step.
type Status string

const (
	StatusStarted Status = "started"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// StepMsg reports a step status change.
type StepMsg struct {
	Step    string
	Status  Status
	Message string
}

// DoneMsg ends the program with the final outcome.
type DoneMsg struct {
	Err     error
	Summary string
}

// Model shows the steps of one event's pipeline as they run.
type Model struct {
	title   string
	spinner spinner.Model
	steps   []string
	current int
	status  map[string]Status
	logs    []string
	updates <-chan StepMsg
	timeout time.Duration

	done    bool
	err     error
	summary string
}

// NewModel creates a model for the given steps. Updates are read from the
// channel until it is closed.
func NewModel(title string, steps []string, updates <-chan StepMsg) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		title:   title,
		spinner: s,
		steps:   steps,
		status:  make(map[string]Status),
		updates: updates,
		timeout: 30 * time.Second,
	}
}

// Err returns the pipeline error, if any, once the program has exited.
func (m Model) Err() error {
	return m.err
}

// Summary returns the final summary once the program has exited.
func (m Model) Summary() string {
	return m.summary
}

// Init starts the spinner and the update listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForUpdate(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.done = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StepMsg:
		m.status[msg.Step] = msg.Status
		if msg.Message != "" {
			m.logs = append(m.logs, fmt.Sprintf("[%s] %s: %s", time.Now().Format("15:04:05"), msg.Step, msg.Message))
		}
		for i, s := range m.steps {
			if s == msg.Step {
				m.current = i
				break
			}
		}
		if msg.Status == StatusError {
			m.err = fmt.Errorf("step %s failed: %s", msg.Step, msg.Message)
		}
		return m, m.waitForUpdate()

	case DoneMsg:
		if msg.Err != nil && m.err == nil {
			m.err = msg.Err
		}
		m.summary = msg.Summary
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg, ok := <-m.updates:
			if !ok {
				// The sender follows up with a DoneMsg.
				return nil
			}
			return msg
		case <-time.After(m.timeout):
			return DoneMsg{Err: fmt.Errorf("no pipeline activity for %s", m.timeout)}
		}
	}
}

// View renders the step list, the latest log lines and, once finished, the
// summary.
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(m.title))
	s.WriteString("\n\n")

	for i, step := range m.steps {
		prefix := "  "
		style := stepStyle

		if i == m.current && !m.done {
			prefix = m.spinner.View() + " "
			style = activeStepStyle
		}

		switch m.status[step] {
		case StatusSuccess:
			prefix = "✓ "
			style = doneStepStyle
		case StatusError:
			prefix = "✗ "
			style = errorStepStyle
		case StatusSkipped:
			prefix = "○ "
			style = stepStyle.Faint(true)
		}

		s.WriteString(style.Render(prefix+step) + "\n")
	}

	if len(m.logs) > 0 {
		s.WriteString("\n")
		start := 0
		if len(m.logs) > 5 {
			start = len(m.logs) - 5
		}
		for _, line := range m.logs[start:] {
			s.WriteString(subtitleStyle.Render(line) + "\n")
		}
	}

	if m.err != nil {
		s.WriteString("\n" + errorStepStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	}

	if m.done {
		if m.summary != "" {
			s.WriteString("\n" + m.summary + "\n")
		}
		return s.String()
	}

	s.WriteString(subtitleStyle.Render("\nPress q to quit\n"))
	return s.String()
}
