package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

func TestModelTracksStepStatus(t *testing.T) {
	steps := []string{"mirror_detector", "original_resolver", "resolved_commenter"}
	m := NewModel("Upstream Bot Pipeline", steps, make(chan StepMsg))

	m = update(t, m, StepMsg{Step: "mirror_detector", Status: StatusSuccess, Message: "Completed"})
	m = update(t, m, StepMsg{Step: "original_resolver", Status: StatusSkipped, Message: "original issue not found"})

	assert.Equal(t, StatusSuccess, m.status["mirror_detector"])
	assert.Equal(t, StatusSkipped, m.status["original_resolver"])
	assert.Equal(t, 1, m.current)
	assert.Len(t, m.logs, 2)
	assert.NoError(t, m.Err())

	view := m.View()
	assert.Contains(t, view, "Upstream Bot Pipeline")
	assert.Contains(t, view, "original issue not found")
}

func TestModelRecordsStepError(t *testing.T) {
	m := NewModel("Upstream Bot Pipeline", []string{"mirror_creator"}, make(chan StepMsg))

	m = update(t, m, StepMsg{Step: "mirror_creator", Status: StatusError, Message: "403 Forbidden"})
	require.Error(t, m.Err())
	assert.Contains(t, m.Err().Error(), "mirror_creator")
	assert.Contains(t, m.View(), "403 Forbidden")
}

func TestModelDone(t *testing.T) {
	m := NewModel("Upstream Bot Pipeline", []string{"command_parser"}, make(chan StepMsg))

	next, cmd := m.Update(DoneMsg{Err: errors.New("boom"), Summary: "skipped: no command in comment"})
	m = next.(Model)

	require.NotNil(t, cmd)
	assert.True(t, m.done)
	assert.EqualError(t, m.Err(), "boom")
	assert.Equal(t, "skipped: no command in comment", m.Summary())
	assert.Contains(t, m.View(), "skipped: no command in comment")
	assert.NotContains(t, m.View(), "Press q to quit")
}
