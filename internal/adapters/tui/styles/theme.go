package styles

import (
	"regexp"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	White     = lipgloss.Color("#FFFFFF")
	Black     = lipgloss.Color("#000000")

	// Prompt colors
	ForegroundPoint = lipgloss.Color("#22C55E") // Green
	BackgroundPoint = lipgloss.Color("#EF4444") // Red
	BoxColor        = lipgloss.Color("#60A5FA") // Blue
	PolygonColor    = lipgloss.Color("#EC4899") // Pink

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// List styles
	VideoItem = lipgloss.NewStyle()

	VideoSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	ObjectActive = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	ObjectIdle = lipgloss.NewStyle()

	// Prompt styles
	PointFg = lipgloss.NewStyle().Foreground(ForegroundPoint).Bold(true)
	PointBg = lipgloss.NewStyle().Foreground(BackgroundPoint).Bold(true)
	Box     = lipgloss.NewStyle().Foreground(BoxColor)
	Polygon = lipgloss.NewStyle().Foreground(PolygonColor)

	// Timeline
	TimelineEmpty  = lipgloss.NewStyle().Foreground(Muted)
	TimelineMarked = lipgloss.NewStyle().Foreground(Secondary)
	TimelineCursor = lipgloss.NewStyle().Foreground(Warning).Bold(true)

	// Input styles
	InputLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	InputField = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1)

	InputFocused = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Secondary).
			Padding(0, 1)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString(" • ")

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarningMsg = lipgloss.NewStyle().
			Foreground(Warning)

	// Muted text style (for using Muted color as a style)
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ClassColor returns the palette color of a class, or Primary when the
// stored value is not a #RRGGBB color
func ClassColor(hex string) lipgloss.Color {
	if !hexColor.MatchString(hex) {
		return Primary
	}
	return lipgloss.Color(hex)
}

// ClassSwatch renders a class name in its palette color
func ClassSwatch(name, hex string) string {
	return lipgloss.NewStyle().Foreground(ClassColor(hex)).Bold(true).Render("■ " + name)
}
