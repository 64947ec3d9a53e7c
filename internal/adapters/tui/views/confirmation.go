package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"tracewave/internal/adapters/tui/styles"
)

// ConfirmKeyMap defines key bindings for confirmation prompts
type ConfirmKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultConfirmKeys returns the default confirmation key bindings
var DefaultConfirmKeys = ConfirmKeyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}

// ConfirmationModel is an inline yes/no prompt embedded by views that
// guard a destructive action (clearing an object, quitting after a failed save)
type ConfirmationModel struct {
	Question string
	Active   bool
	Keys     ConfirmKeyMap
}

// NewConfirmationModel creates a new confirmation model with default keys
func NewConfirmationModel() ConfirmationModel {
	return ConfirmationModel{
		Keys: DefaultConfirmKeys,
	}
}

// Ask activates the prompt with the given question
func (m *ConfirmationModel) Ask(question string) {
	m.Question = question
	m.Active = true
}

// Dismiss deactivates the prompt
func (m *ConfirmationModel) Dismiss() {
	m.Question = ""
	m.Active = false
}

// HandleKeyMsg processes key messages for an active prompt.
// Returns (handled, cmd) where handled is true if the key was processed.
// The prompt is dismissed on either answer.
func (m *ConfirmationModel) HandleKeyMsg(msg tea.KeyMsg, onConfirm, onCancel func() tea.Msg) (bool, tea.Cmd) {
	if !m.Active {
		return false, nil
	}
	switch {
	case key.Matches(msg, m.Keys.Cancel):
		m.Dismiss()
		return true, func() tea.Msg { return onCancel() }
	case key.Matches(msg, m.Keys.Confirm):
		m.Dismiss()
		return true, func() tea.Msg { return onConfirm() }
	}
	// swallow everything else while asking
	return true, nil
}

// View renders the prompt, or nothing when inactive
func (m *ConfirmationModel) View() string {
	if !m.Active {
		return ""
	}
	return RenderConfirmPrompt(m.Question)
}

// RenderConfirmPrompt renders the standard confirmation prompt
func RenderConfirmPrompt(question string) string {
	var b strings.Builder
	b.WriteString(styles.WarningMsg.Render(question))
	b.WriteString(" ")
	b.WriteString(styles.HelpKey.Render("y"))
	b.WriteString(styles.HelpDesc.Render(" to confirm, "))
	b.WriteString(styles.HelpKey.Render("n"))
	b.WriteString(styles.HelpDesc.Render(" to cancel"))
	return b.String()
}
