package tui

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"tracewave/internal/adapters/tui/views"
	"tracewave/internal/application"
	"tracewave/internal/config"
	"tracewave/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewVideos ViewState = iota
	ViewAnnotator
	ViewHelp
)

// Deps wires the application to its adapters. Viewer, Editor, Extractor,
// Exporter and Index are optional.
type Deps struct {
	Workspace *application.Workspace
	Workflow  *application.Workflow
	Autosaver *application.Autosaver
	Extractor ports.FrameExtractor
	Exporter  ports.PromptExporter
	Index     ports.AnnotationIndex
	Viewer    ports.ImageViewer
	Editor    ports.EditorOpener
	Import    config.ImportSettings
	Logger    *slog.Logger
}

// App is the main TUI application model
type App struct {
	deps   Deps
	logger *slog.Logger
	saved  chan error

	state     ViewState
	prev      ViewState
	videos    *views.VideosModel
	annotator *views.AnnotatorModel
	help      *views.HelpModel
	confirm   views.ConfirmationModel
	quitErr   string

	width  int
	height int
}

// NewApp creates a new TUI application. The last session is restored:
// when it names a known video the annotator opens on its frame.
func NewApp(deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	session := application.SessionFromUI(deps.Workspace.Project().UI)
	a := &App{
		deps:   deps,
		logger: logger,
		saved:  make(chan error, 1),
		state:  ViewVideos,
		videos: views.NewVideosModel(views.VideosDeps{
			Workspace: deps.Workspace,
			Extractor: deps.Extractor,
			Exporter:  deps.Exporter,
			Index:     deps.Index,
			Import:    deps.Import,
		}),
		annotator: views.NewAnnotatorModel(views.AnnotatorDeps{
			Workspace: deps.Workspace,
			Workflow:  deps.Workflow,
			Viewer:    deps.Viewer,
			Save:      deps.Autosaver.Flush,
		}, session),
		help:    views.NewHelpModel(),
		confirm: views.NewConfirmationModel(),
	}

	deps.Autosaver.OnSave(func(err error) {
		select {
		case a.saved <- err:
		default:
		}
	})

	if session.VideoID != "" {
		if err := a.annotator.Open(session.VideoID); err == nil {
			a.state = ViewAnnotator
			a.videos.Select(session.VideoID)
		}
	}
	return a
}

// State returns the active view
func (a *App) State() ViewState {
	return a.state
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.waitForAutosave()
}

// AutosavedMsg reports a timer-driven save
type AutosavedMsg struct {
	Err error
}

func (a *App) waitForAutosave() tea.Cmd {
	return func() tea.Msg {
		return AutosavedMsg{Err: <-a.saved}
	}
}

type editorFinishedMsg struct{ err error }

type quitConfirmedMsg struct{}

type quitCancelledMsg struct{}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.videos.SetSize(msg.Width, msg.Height)
		a.annotator.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if handled, cmd := a.confirm.HandleKeyMsg(msg,
			func() tea.Msg { return quitConfirmedMsg{} },
			func() tea.Msg { return quitCancelledMsg{} },
		); handled {
			return a, cmd
		}

	case quitConfirmedMsg:
		return a, tea.Quit

	case quitCancelledMsg:
		a.quitErr = ""
		return a, nil

	// View switching messages
	case views.SwitchToVideosMsg:
		a.state = ViewVideos
		a.videos.Reload()
		a.videos.Select(a.annotator.Session().VideoID)
		return a, nil

	case views.SwitchToAnnotatorMsg:
		if err := a.annotator.Open(msg.VideoID); err != nil {
			a.videos.SetMessage(err.Error(), true)
			return a, nil
		}
		a.state = ViewAnnotator
		a.recordSession(a.annotator.Session(), false)
		return a, nil

	case views.SwitchToHelpMsg:
		a.prev = a.state
		a.state = ViewHelp
		return a, nil

	case views.CloseHelpMsg:
		a.state = a.prev
		return a, nil

	case views.SessionChangedMsg:
		a.recordSession(msg.Session, msg.Mutated)
		return a, nil

	case AutosavedMsg:
		if msg.Err != nil {
			a.setMessage(fmt.Sprintf("Autosave failed: %v", msg.Err), true)
		}
		return a, a.waitForAutosave()

	case views.OpenEditorMsg:
		return a, a.openEditor(msg.Path)

	case editorFinishedMsg:
		if msg.err != nil {
			a.setMessage(fmt.Sprintf("Editor: %v", msg.err), true)
			return a, nil
		}
		return a, a.reload()

	case views.QuitMsg:
		return a, a.quit()
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewVideos:
		_, cmd = a.videos.Update(msg)
	case ViewAnnotator:
		_, cmd = a.annotator.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

// recordSession stores the resume state and schedules an autosave for
// annotation changes
func (a *App) recordSession(s application.Session, mutated bool) {
	if err := a.deps.Workspace.SetSession(s); err != nil {
		a.logger.Warn("failed to record session", "error", err)
	}
	if mutated {
		a.deps.Autosaver.Touch()
	}
}

func (a *App) setMessage(msg string, isErr bool) {
	switch a.state {
	case ViewAnnotator:
		a.annotator.SetMessage(msg, isErr)
	default:
		a.videos.SetMessage(msg, isErr)
	}
}

// openEditor saves pending changes first, since the workspace is reloaded
// from disk once the editor exits
func (a *App) openEditor(path string) tea.Cmd {
	if a.deps.Editor == nil {
		a.setMessage("No editor configured", true)
		return nil
	}
	if err := a.deps.Autosaver.Flush(); err != nil {
		a.setMessage(fmt.Sprintf("Save failed: %v", err), true)
		return nil
	}

	cmd, err := a.deps.Editor.Command(path)
	if err != nil {
		return func() tea.Msg {
			return editorFinishedMsg{err: err}
		}
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func (a *App) reload() tea.Cmd {
	p := a.deps.Workspace.Project()
	if err := a.deps.Workspace.Open(p.DescriptorPath()); err != nil {
		a.setMessage(err.Error(), true)
		return nil
	}
	a.deps.Workflow.SetAutoRun(a.deps.Workspace.Project().Oracle.AutoRun)
	a.videos.Reload()
	if err := a.annotator.Reload(); err != nil {
		a.state = ViewVideos
		a.videos.SetMessage(err.Error(), true)
		return nil
	}
	a.setMessage("Project reloaded", false)
	return nil
}

// quit saves and exits. A failed save asks before discarding changes.
func (a *App) quit() tea.Cmd {
	if a.videos.Importing() {
		a.setMessage("Import in progress: press esc to cancel it first", true)
		return nil
	}

	a.recordSession(a.annotator.Session(), false)
	if !a.deps.Workspace.Dirty() {
		return tea.Quit
	}
	if err := a.deps.Autosaver.Flush(); err != nil {
		a.logger.Error("save on quit failed", "error", err)
		a.quitErr = err.Error()
		a.confirm.Ask("Save failed. Quit and lose unsaved changes?")
		return nil
	}
	return tea.Quit
}

// View renders the current view
func (a *App) View() string {
	if a.confirm.Active {
		return views.NewViewBuilder().
			Title("TraceWave").
			Message(a.quitErr, true).
			Line(a.confirm.View()).
			String()
	}

	switch a.state {
	case ViewAnnotator:
		return a.annotator.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.videos.View()
	}
}
