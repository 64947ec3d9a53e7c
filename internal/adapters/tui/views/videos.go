package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"tracewave/internal/adapters/tui/styles"
	"tracewave/internal/application"
	"tracewave/internal/application/commands"
	"tracewave/internal/config"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// VideosKeyMap defines key bindings for the video list
type VideosKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Open     key.Binding
	Import   key.Binding
	Export   key.Binding
	Stats    key.Binding
	Edit     key.Binding
	Cancel   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var VideosKeys = VideosKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+f"),
		key.WithHelp("pgdn", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("pgup", "ctrl+b"),
		key.WithHelp("pgup", "prev page"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter", "l"),
		key.WithHelp("enter", "annotate"),
	),
	Import: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "import"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	Stats: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "stats"),
	),
	Edit: key.NewBinding(
		key.WithKeys("E"),
		key.WithHelp("E", "edit project"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel import"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// VideosDeps wires the video list to the application layer. Index is optional.
type VideosDeps struct {
	Workspace *application.Workspace
	Extractor ports.FrameExtractor
	Exporter  ports.PromptExporter
	Index     ports.AnnotationIndex
	Import    config.ImportSettings
}

// VideosModel lists the project's videos and runs batch operations on them
type VideosModel struct {
	ViewState
	deps   VideosDeps
	keys   VideosKeyMap
	videos []domain.VideoItem
	list   *ListWindow
	form   *Form
	stats  *commands.StatsResult

	// import in progress
	importing bool
	cancel    context.CancelFunc
	progress  progress.Model
	steps     int
	total     int
	status    string
	failures  []string
	events    <-chan ports.ImportEvent
	done      <-chan importDoneMsg
}

// NewVideosModel creates a new video list
func NewVideosModel(deps VideosDeps) *VideosModel {
	m := &VideosModel{
		deps:     deps,
		keys:     VideosKeys,
		list:     NewListWindow(10),
		progress: progress.New(progress.WithDefaultGradient()),
	}
	m.Reload()
	return m
}

// Reload refreshes the list from the workspace
func (m *VideosModel) Reload() {
	m.videos = m.deps.Workspace.Videos()
	m.list.SetLen(len(m.videos))
}

// Select moves the cursor to a video
func (m *VideosModel) Select(videoID string) {
	for i, v := range m.videos {
		if v.ID == videoID {
			m.list.SetCursor(i)
			return
		}
	}
}

// Selected returns the video under the cursor
func (m *VideosModel) Selected() (domain.VideoItem, bool) {
	i := m.list.Cursor()
	if i < 0 || i >= len(m.videos) {
		return domain.VideoItem{}, false
	}
	return m.videos[i], true
}

// Importing reports whether an import batch is running
func (m *VideosModel) Importing() bool {
	return m.importing
}

// SetSize updates the view dimensions and the list height
func (m *VideosModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
	m.list.SetHeight(max(3, height-16))
	m.progress.Width = max(20, min(60, width-10))
}

// Init initializes the video list
func (m *VideosModel) Init() tea.Cmd {
	return nil
}

type importEventMsg struct {
	ev ports.ImportEvent
}

type importDoneMsg struct {
	res *commands.ImportVideosResult
	err error
}

type exportDoneMsg struct {
	res *commands.ExportResult
	err error
}

type statsDoneMsg struct {
	res *commands.StatsResult
	err error
}

// Update handles messages for the video list
func (m *VideosModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case importEventMsg:
		m.handleImportEvent(msg.ev)
		return m, waitForImport(m.events, m.done)

	case importDoneMsg:
		m.finishImport(msg.res, msg.err)
		return m, nil

	case exportDoneMsg:
		m.finishExport(msg.res, msg.err)
		return m, nil

	case statsDoneMsg:
		if msg.err != nil {
			m.SetMessage(msg.err.Error(), true)
			return m, nil
		}
		m.stats = msg.res
		m.SetMessage(msg.res.Message, false)
		return m, nil

	case tea.KeyMsg:
		if m.form != nil {
			return m, m.updateForm(msg)
		}
		if m.importing {
			if key.Matches(msg, m.keys.Cancel) && m.cancel != nil {
				m.cancel()
				m.status = "Cancelling..."
			}
			return m, nil
		}
		return m, m.handleKey(msg)
	}

	if m.form != nil {
		return m, m.form.Update(msg)
	}
	return m, nil
}

func (m *VideosModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return func() tea.Msg { return QuitMsg{} }

	case key.Matches(msg, m.keys.Help):
		return func() tea.Msg { return SwitchToHelpMsg{} }

	case key.Matches(msg, m.keys.Up):
		m.list.Move(-1)
	case key.Matches(msg, m.keys.Down):
		m.list.Move(1)
	case key.Matches(msg, m.keys.NextPage):
		m.list.PageDown()
	case key.Matches(msg, m.keys.PrevPage):
		m.list.PageUp()

	case key.Matches(msg, m.keys.Open):
		v, ok := m.Selected()
		if !ok {
			m.SetMessage("No videos yet: press i to import", true)
			return nil
		}
		return func() tea.Msg { return SwitchToAnnotatorMsg{VideoID: v.ID} }

	case key.Matches(msg, m.keys.Import):
		if m.deps.Extractor == nil {
			m.SetMessage("Video import is not configured", true)
			return nil
		}
		m.openImportForm()
		return m.form.Init()

	case key.Matches(msg, m.keys.Export):
		return m.export()

	case key.Matches(msg, m.keys.Stats):
		return m.loadStats()

	case key.Matches(msg, m.keys.Edit):
		path := m.deps.Workspace.Project().DescriptorPath()
		return func() tea.Msg { return OpenEditorMsg{Path: path} }
	}
	return nil
}

func (m *VideosModel) openImportForm() {
	s := m.deps.Import
	sources := NewFormField("Video files (comma separated)", "", 0, nil)
	sources.Input.Placeholder = "/path/a.mp4, /path/b.mov"
	m.form = NewForm("import",
		sources,
		NewFormField("Quality (2 best - 31 worst)", strconv.Itoa(s.Quality), 2, ValidateDigits),
		NewFormField("Parallel videos", strconv.Itoa(s.Workers), 2, ValidateDigits),
	)
}

func (m *VideosModel) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.form.Keys.Cancel):
		m.form = nil
		return nil
	case key.Matches(msg, m.form.Keys.Submit):
		cmd, err := m.startImport()
		if err != nil {
			m.SetMessage(err.Error(), true)
			return nil
		}
		m.form = nil
		return cmd
	}
	return m.form.Update(msg)
}

// SplitSources splits a comma separated list of paths, expanding ~
func SplitSources(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, config.ExpandHome(p))
		}
	}
	return out
}

func (m *VideosModel) startImport() (tea.Cmd, error) {
	quality, err := m.form.Int(1)
	if err != nil {
		return nil, err
	}
	workers, err := m.form.Int(2)
	if err != nil {
		return nil, err
	}

	c := commands.NewImportVideosCommand(m.deps.Workspace, m.deps.Extractor, SplitSources(m.form.Value(0)))
	c.Quality = quality
	c.Threads = m.deps.Import.Threads
	c.Workers = workers
	if err := c.Validate(); err != nil {
		return nil, err
	}

	events := make(chan ports.ImportEvent, 16)
	done := make(chan importDoneMsg, 1)
	c.OnEvent = func(ev ports.ImportEvent) { events <- ev }

	ctx, cancel := context.WithCancel(context.Background())
	m.importing = true
	m.cancel = cancel
	m.steps = 0
	m.total = len(c.Sources)
	m.status = "Starting import..."
	m.failures = nil
	m.stats = nil
	m.ClearMessage()
	m.events = events
	m.done = done

	go func() {
		res, err := c.Execute(ctx)
		close(events)
		done <- importDoneMsg{res: res, err: err}
	}()

	return waitForImport(events, done), nil
}

// waitForImport delivers the next extraction event, then the final result
func waitForImport(events <-chan ports.ImportEvent, done <-chan importDoneMsg) tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-events; ok {
			return importEventMsg{ev: ev}
		}
		return <-done
	}
}

func (m *VideosModel) handleImportEvent(ev ports.ImportEvent) {
	switch ev.Kind {
	case ports.ImportProgress:
		m.steps++
		m.status = ev.Message
	case ports.ImportItemError:
		m.steps++
		m.failures = append(m.failures, ev.Message)
	case ports.ImportFinished:
		m.status = ev.Message
	}
}

// Percent returns the import completion in [0, 1]. Every video emits a
// start and an end event.
func (m *VideosModel) Percent() float64 {
	if m.total == 0 {
		return 0
	}
	return min(1, float64(m.steps)/float64(2*m.total))
}

func (m *VideosModel) finishImport(res *commands.ImportVideosResult, err error) {
	m.importing = false
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.events = nil
	m.done = nil
	m.Reload()

	switch {
	case err != nil:
		m.SetMessage(fmt.Sprintf("Import failed: %v", err), true)
	case len(res.Failures) > 0:
		m.SetMessage(fmt.Sprintf("%s, %d failed", res.Message, len(res.Failures)), true)
	default:
		m.SetMessage(res.Message, false)
	}
	if res != nil && len(res.Videos) > 0 {
		m.Select(res.Videos[len(res.Videos)-1].ID)
	}
}

func (m *VideosModel) export() tea.Cmd {
	if m.deps.Exporter == nil {
		m.SetMessage("Export is not configured", true)
		return nil
	}
	c := commands.NewExportCommand(m.deps.Workspace, m.deps.Exporter, nil)
	m.SetMessage("Exporting...", false)
	return func() tea.Msg {
		res, err := c.Execute(context.Background())
		return exportDoneMsg{res: res, err: err}
	}
}

func (m *VideosModel) finishExport(res *commands.ExportResult, err error) {
	if err != nil {
		m.SetMessage(fmt.Sprintf("Export failed: %v", err), true)
		return
	}
	if len(res.Failures) > 0 {
		var parts []string
		for _, f := range res.Failures {
			parts = append(parts, fmt.Sprintf("%s: %v", f.VideoID, f.Err))
		}
		m.SetMessage(res.Message+" ("+strings.Join(parts, "; ")+")", true)
		return
	}
	m.SetMessage(res.Message, false)
}

func (m *VideosModel) loadStats() tea.Cmd {
	c := commands.NewStatsCommand(m.deps.Workspace, m.deps.Index)
	return func() tea.Msg {
		res, err := c.Execute(context.Background())
		return statsDoneMsg{res: res, err: err}
	}
}

// View renders the video list
func (m *VideosModel) View() string {
	v := NewViewBuilder()
	p := m.deps.Workspace.Project()

	v.Title("TraceWave · " + p.Name)
	v.Subtitle(fmt.Sprintf("%d videos · %s", len(m.videos), p.Root))

	if len(m.videos) == 0 {
		v.Muted("No videos yet. Press i to import.")
		v.BlankLine()
	} else {
		start, end := m.list.Range()
		for i := start; i < end; i++ {
			v.Line(m.renderVideo(m.videos[i], i == m.list.Cursor()))
		}
		if m.list.Scrollable() {
			v.Muted(m.list.Position())
		}
		v.BlankLine()
	}

	if m.stats != nil {
		v.Raw(renderStats(m.stats))
		v.BlankLine()
	}

	if m.importing {
		v.Line(styles.InputLabel.Render("Importing"))
		v.Line(m.progress.ViewAs(m.Percent()))
		v.Muted(m.status)
		for _, f := range m.failures {
			v.Line(styles.ErrorMsg.Render("✗ " + f))
		}
		v.BlankLine()
		v.Help(m.keys.Cancel)
		return v.String()
	}

	v.Message(m.Message, m.MessageErr)

	if m.form != nil {
		v.Raw(m.form.View())
		return v.String()
	}

	v.Help(m.keys.Open, m.keys.Import, m.keys.Export, m.keys.Stats, m.keys.Edit, m.keys.Help, m.keys.Quit)
	return v.String()
}

func (m *VideosModel) renderVideo(v domain.VideoItem, selected bool) string {
	fps := ""
	if v.FPS != nil {
		fps = fmt.Sprintf(" · %.2f fps", *v.FPS)
	}
	line := fmt.Sprintf("%s  %s  %d frames%s", v.ID, v.Name, v.FrameCount, fps)
	if selected {
		return styles.VideoSelected.Render("▸ " + line)
	}
	return styles.VideoItem.Render("  " + line)
}

func renderStats(s *commands.StatsResult) string {
	var b strings.Builder
	b.WriteString(styles.InputLabel.Render("Statistics"))
	b.WriteString("\n")
	for _, v := range s.Videos {
		b.WriteString(fmt.Sprintf("  %-14s %4d/%-5d frames  %4d objects  %4d points  %3d boxes  %3d polygons\n",
			v.Video.ID, v.AnnotatedFrames, v.Frames, v.Objects, v.Points, v.Boxes, v.Polygons))
	}
	if len(s.Classes) > 0 {
		var parts []string
		for _, c := range s.Classes {
			parts = append(parts, fmt.Sprintf("%s %d", c.Class, c.Objects))
		}
		b.WriteString("  " + RenderLabelValue("Classes", strings.Join(parts, ", ")) + "\n")
	}
	if s.Skipped > 0 || s.Orphans > 0 {
		b.WriteString("  " + RenderMuted(fmt.Sprintf("%d skipped records, %d records of unknown videos", s.Skipped, s.Orphans)) + "\n")
	}
	return b.String()
}
