package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tracewave/internal/adapters/tui/styles"
)

// FormKeyMap defines key bindings for coordinate and settings forms
type FormKeyMap struct {
	Submit key.Binding
	Cancel key.Binding
	Next   key.Binding
	Prev   key.Binding
}

// DefaultFormKeys returns the default form key bindings
var DefaultFormKeys = FormKeyMap{
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
	Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
}

// FormField is a labelled text input. Validation errors are shown under the
// field while typing; the value is still parsed again on submit.
type FormField struct {
	Label string
	Input textinput.Model
}

// NewFormField creates a field prefilled with value. validate may be nil.
func NewFormField(label, value string, charLimit int, validate textinput.ValidateFunc) FormField {
	input := textinput.New()
	input.Placeholder = value
	input.CharLimit = charLimit
	input.Validate = validate
	input.SetValue(value)
	return FormField{Label: label, Input: input}
}

// Form is a small stack of fields submitted together
type Form struct {
	Fields []FormField
	Keys   FormKeyMap
	action string
	focus  int
}

// NewForm creates a form whose submit key is described as action
func NewForm(action string, fields ...FormField) *Form {
	f := &Form{Fields: fields, Keys: DefaultFormKeys, action: action}
	f.SetFocus(0)
	return f
}

// Init starts the cursor blink
func (f *Form) Init() tea.Cmd {
	return textinput.Blink
}

// Update moves focus or forwards the message to the focused field
func (f *Form) Update(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok && len(f.Fields) > 1 {
		switch {
		case key.Matches(k, f.Keys.Next):
			f.SetFocus((f.focus + 1) % len(f.Fields))
			return nil
		case key.Matches(k, f.Keys.Prev):
			f.SetFocus((f.focus + len(f.Fields) - 1) % len(f.Fields))
			return nil
		}
	}
	if f.focus >= len(f.Fields) {
		return nil
	}
	var cmd tea.Cmd
	f.Fields[f.focus].Input, cmd = f.Fields[f.focus].Input.Update(msg)
	return cmd
}

// Focused returns the index of the focused field
func (f *Form) Focused() int {
	return f.focus
}

// SetFocus focuses field i. Out of range indexes are ignored.
func (f *Form) SetFocus(i int) {
	if i < 0 || i >= len(f.Fields) {
		return
	}
	for j := range f.Fields {
		f.Fields[j].Input.Blur()
	}
	f.focus = i
	f.Fields[i].Input.Focus()
}

// Value returns the trimmed value of field i
func (f *Form) Value(i int) string {
	if i < 0 || i >= len(f.Fields) {
		return ""
	}
	return strings.TrimSpace(f.Fields[i].Input.Value())
}

// SetValue replaces the value of field i
func (f *Form) SetValue(i int, value string) {
	if i < 0 || i >= len(f.Fields) {
		return
	}
	f.Fields[i].Input.SetValue(value)
}

// Int parses field i as an integer, naming the field in the error
func (f *Form) Int(i int) (int, error) {
	n, err := strconv.Atoi(f.Value(i))
	if err != nil {
		return 0, fmt.Errorf("%s: expected a number, got %q", f.label(i), f.Value(i))
	}
	return n, nil
}

func (f *Form) label(i int) string {
	if i < 0 || i >= len(f.Fields) {
		return ""
	}
	return f.Fields[i].Label
}

// View renders every field followed by the key help
func (f *Form) View() string {
	var b strings.Builder
	for i, field := range f.Fields {
		b.WriteString(styles.InputLabel.Render(field.Label))
		b.WriteByte('\n')
		box := styles.InputField
		if i == f.focus {
			box = styles.InputFocused
		}
		b.WriteString(box.Render(field.Input.View()))
		b.WriteByte('\n')
		if field.Input.Err != nil && field.Input.Value() != "" {
			b.WriteString(styles.ErrorMsg.Render(field.Input.Err.Error()))
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')

	help := []string{
		styles.HelpKey.Render("enter") + " " + styles.HelpDesc.Render(f.action),
		styles.HelpKey.Render("esc") + " " + styles.HelpDesc.Render("cancel"),
	}
	if len(f.Fields) > 1 {
		help = append([]string{styles.HelpKey.Render("tab") + " " + styles.HelpDesc.Render("next field")}, help...)
	}
	b.WriteString(strings.Join(help, "  "))
	return b.String()
}

// ValidatePair accepts a partial or complete "x,y" pair
func ValidatePair(s string) error {
	for _, r := range s {
		if (r < '0' || r > '9') && r != ',' && r != ' ' {
			return fmt.Errorf("only digits and a comma, e.g. 120,80")
		}
	}
	if strings.Count(s, ",") > 1 {
		return fmt.Errorf("one comma between x and y")
	}
	return nil
}

// ValidateDigits accepts a non-negative integer
func ValidateDigits(s string) error {
	for _, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("digits only")
		}
	}
	return nil
}

// ValidateLabelInput accepts 0 or 1
func ValidateLabelInput(s string) error {
	if s != "" && s != "0" && s != "1" {
		return fmt.Errorf("1 foreground, 0 background")
	}
	return nil
}
