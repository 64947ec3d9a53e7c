package views

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"

	"tracewave/internal/adapters/tui/styles"
)

var shortHelp = func() help.Model {
	h := help.New()
	h.Styles.ShortKey = styles.HelpKey
	h.Styles.ShortDesc = styles.HelpDesc
	h.Styles.ShortSeparator = styles.MutedText
	h.ShortSeparator = styles.HelpSeparator.String()
	return h
}()

// RenderMuted renders secondary text
func RenderMuted(text string) string {
	return styles.MutedText.Render(text)
}

// RenderLabelValue renders "Label: value"
func RenderLabelValue(label, value string) string {
	return styles.InputLabel.Render(label+":") + " " + value
}

// ViewBuilder accumulates the sections of a screen. Every method appends and
// returns the builder; String wraps the result in the app padding.
type ViewBuilder struct {
	buf []byte
}

// NewViewBuilder creates an empty view
func NewViewBuilder() *ViewBuilder {
	return &ViewBuilder{}
}

func (v *ViewBuilder) write(s string, newlines int) *ViewBuilder {
	v.buf = append(v.buf, s...)
	for range newlines {
		v.buf = append(v.buf, '\n')
	}
	return v
}

// Title adds the screen title
func (v *ViewBuilder) Title(title string) *ViewBuilder {
	return v.write(styles.Title.Render(title), 2)
}

// Subtitle adds a line under the title
func (v *ViewBuilder) Subtitle(subtitle string) *ViewBuilder {
	return v.write(styles.Subtitle.Render(subtitle), 2)
}

// Line adds one line
func (v *ViewBuilder) Line(text string) *ViewBuilder {
	return v.write(text, 1)
}

// BlankLine adds an empty line
func (v *ViewBuilder) BlankLine() *ViewBuilder {
	return v.write("", 1)
}

// Muted adds a line of secondary text
func (v *ViewBuilder) Muted(text string) *ViewBuilder {
	return v.write(RenderMuted(text), 1)
}

// Message adds the last operation's outcome, if any
func (v *ViewBuilder) Message(message string, isError bool) *ViewBuilder {
	switch {
	case message == "":
		return v
	case isError:
		return v.write(styles.ErrorMsg.Render(message), 2)
	default:
		return v.write(styles.Success.Render(message), 2)
	}
}

// Help adds the short key help for bindings
func (v *ViewBuilder) Help(bindings ...key.Binding) *ViewBuilder {
	return v.write(shortHelp.ShortHelpView(bindings), 0)
}

// Raw adds text as is
func (v *ViewBuilder) Raw(text string) *ViewBuilder {
	return v.write(text, 0)
}

// String returns the screen
func (v *ViewBuilder) String() string {
	return styles.App.Render(string(v.buf))
}
