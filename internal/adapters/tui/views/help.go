package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"tracewave/internal/adapters/tui/styles"
)

// HelpKeyMap defines key bindings for the help view
type HelpKeyMap struct {
	Close key.Binding
}

var HelpKeys = HelpKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "?"),
		key.WithHelp("esc/q/?", "close"),
	),
}

type helpSection struct {
	title    string
	bindings [][]key.Binding // columns
}

// helpSections groups the live keymaps by topic
func helpSections() []helpSection {
	v, a := VideosKeys, AnnotatorKeys
	return []helpSection{
		{"Videos", [][]key.Binding{
			{v.Up, v.Down, v.NextPage, v.PrevPage},
			{v.Open, v.Import, v.Export, v.Stats},
		}},
		{"Frames", [][]key.Binding{
			{a.Prev, a.Next, a.JumpBack, a.JumpForward},
			{a.First, a.Last, a.Filter},
			{a.Open, a.Copy, a.Back},
		}},
		{"Annotation", [][]key.Binding{
			{a.PrevObject, a.NextObject, a.Mode, a.Add, a.Undo},
			{a.Class, a.Segment, a.AutoRun},
			{a.ClearPrompts, a.ClearMask, a.ClearObject},
		}},
		{"General", [][]key.Binding{
			{a.Save, a.Edit},
			{a.Help, a.Quit},
		}},
	}
}

// HelpModel lists every key binding by section
type HelpModel struct {
	help   help.Model
	width  int
	height int
}

// NewHelpModel creates a new help view model
func NewHelpModel() *HelpModel {
	h := help.New()
	h.ShowAll = true
	h.Styles.FullKey = styles.HelpKey
	h.Styles.FullDesc = styles.HelpDesc
	h.Styles.FullSeparator = styles.MutedText
	return &HelpModel{help: h}
}

// Init initializes the help view
func (m *HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view
func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, HelpKeys.Close) {
			return m, func() tea.Msg {
				return CloseHelpMsg{}
			}
		}
	}

	return m, nil
}

// View renders the help view
func (m *HelpModel) View() string {
	v := NewViewBuilder()
	v.Title("TraceWave Help")
	v.Subtitle("Video frame annotation")

	for _, s := range helpSections() {
		v.Line(styles.InputLabel.Render(s.title))
		v.Line(m.help.FullHelpView(s.bindings))
		v.BlankLine()
	}

	v.Line(styles.InputLabel.Render("Prompts"))
	v.Muted("  point  x,y with label 1 (foreground) or 0 (background)")
	v.Muted("  box    two opposite corners x0,y0 and x1,y1")
	v.BlankLine()

	v.Raw(strings.Join([]string{
		styles.HelpDesc.Render("Press"),
		styles.HelpKey.Render("esc"),
		styles.HelpDesc.Render("or"),
		styles.HelpKey.Render("?"),
		styles.HelpDesc.Render("to close"),
	}, " "))
	return v.String()
}

// SetSize updates the view dimensions
func (m *HelpModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = max(0, width-4)
}
