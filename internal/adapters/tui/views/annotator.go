package views

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"tracewave/internal/adapters/tui/styles"
	"tracewave/internal/application"
	"tracewave/internal/application/commands"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// AnnotatorKeyMap defines key bindings for the annotator
type AnnotatorKeyMap struct {
	Prev         key.Binding
	Next         key.Binding
	JumpBack     key.Binding
	JumpForward  key.Binding
	First        key.Binding
	Last         key.Binding
	PrevObject   key.Binding
	NextObject   key.Binding
	Mode         key.Binding
	Filter       key.Binding
	Class        key.Binding
	Add          key.Binding
	Undo         key.Binding
	Segment      key.Binding
	AutoRun      key.Binding
	ClearPrompts key.Binding
	ClearMask    key.Binding
	ClearObject  key.Binding
	Copy         key.Binding
	Open         key.Binding
	Edit         key.Binding
	Save         key.Binding
	Back         key.Binding
	Help         key.Binding
	Quit         key.Binding
}

var AnnotatorKeys = AnnotatorKeyMap{
	Prev: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "prev"),
	),
	Next: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "next"),
	),
	JumpBack: key.NewBinding(
		key.WithKeys("H"),
		key.WithHelp("H", "-10"),
	),
	JumpForward: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "+10"),
	),
	First: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "first"),
	),
	Last: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "last"),
	),
	PrevObject: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "prev object"),
	),
	NextObject: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "next object"),
	),
	Mode: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "mode"),
	),
	Filter: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "only annotated"),
	),
	Class: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "class"),
	),
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add prompt"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "remove last point"),
	),
	Segment: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "segment"),
	),
	AutoRun: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "auto-run"),
	),
	ClearPrompts: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "clear prompts"),
	),
	ClearMask: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear mask"),
	),
	ClearObject: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "clear object"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy path"),
	),
	Open: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open frame"),
	),
	Edit: key.NewBinding(
		key.WithKeys("E"),
		key.WithHelp("E", "edit project"),
	),
	Save: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "save"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "videos"),
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

const jumpSize = 10

// AnnotatorDeps wires the annotator to the application layer.
// Viewer, CopyText and Save are optional.
type AnnotatorDeps struct {
	Workspace *application.Workspace
	Workflow  *application.Workflow
	Viewer    ports.ImageViewer
	CopyText  func(string) error
	Save      func() error
}

// AnnotatorModel navigates the frames of one video and edits the
// annotation of the selected object
type AnnotatorModel struct {
	ViewState
	deps       AnnotatorDeps
	keys       AnnotatorKeyMap
	session    application.Session
	video      domain.VideoItem
	frames     int
	form       *Form
	formMode   string
	confirm    ConfirmationModel
	segmenting bool
}

// NewAnnotatorModel creates an annotator starting from a restored session
func NewAnnotatorModel(deps AnnotatorDeps, session application.Session) *AnnotatorModel {
	if deps.CopyText == nil {
		deps.CopyText = clipboard.WriteAll
	}
	return &AnnotatorModel{
		deps:    deps,
		keys:    AnnotatorKeys,
		session: session,
		confirm: NewConfirmationModel(),
	}
}

// Session returns the current session state
func (m *AnnotatorModel) Session() application.Session {
	return m.session
}

// Open selects a video. The frame position is kept when reopening the
// video of the current session, otherwise it starts at the first frame.
func (m *AnnotatorModel) Open(videoID string) error {
	p := m.deps.Workspace.Project()
	v, ok := p.FindVideo(videoID)
	if !ok {
		return fmt.Errorf("video %q: %w", videoID, application.ErrNotFound)
	}

	frames := 0
	if err := m.deps.Workspace.View(videoID, func(s *domain.AnnotationStore) { frames = s.FrameCount() }); err != nil {
		return err
	}

	if m.session.VideoID != videoID {
		m.session.Frame = 0
	}
	m.session.VideoID = videoID
	if m.session.ObjID <= 0 {
		m.session.ObjID = domain.DefaultObjectID
	}
	m.video = *v
	m.frames = frames
	m.form = nil
	m.confirm.Dismiss()
	m.ClearMessage()
	m.setFrame(m.session.Frame)
	return nil
}

// Reload re-reads the current video after the workspace was reopened
func (m *AnnotatorModel) Reload() error {
	if m.session.VideoID == "" {
		return nil
	}
	return m.Open(m.session.VideoID)
}

func (m *AnnotatorModel) selection() application.Selection {
	return m.session.Selection
}

// setFrame moves the selection and the store cursor, clamped to the video
func (m *AnnotatorModel) setFrame(i int) {
	_ = m.deps.Workspace.Update(m.session.VideoID, func(s *domain.AnnotationStore) error {
		m.session.Frame = s.SetCursor(i)
		return nil
	})
}

func (m *AnnotatorModel) step(delta int) {
	if !m.session.ShowOnlyAnnotated {
		m.setFrame(m.session.Frame + delta)
		return
	}

	target := m.session.Frame
	_ = m.deps.Workspace.View(m.session.VideoID, func(s *domain.AnnotationStore) {
		for n := 0; n < abs(delta); n++ {
			var (
				idx int
				ok  bool
			)
			if delta > 0 {
				idx, ok = s.NextAnnotated(target)
			} else {
				idx, ok = s.PrevAnnotated(target)
			}
			if !ok {
				break
			}
			target = idx
		}
	})
	if target == m.session.Frame {
		m.SetMessage("No more annotated frames", false)
		return
	}
	m.setFrame(target)
}

func (m *AnnotatorModel) edge(last bool) {
	target := 0
	if last {
		target = m.frames - 1
	}
	if m.session.ShowOnlyAnnotated {
		_ = m.deps.Workspace.View(m.session.VideoID, func(s *domain.AnnotationStore) {
			annotated := s.AnnotatedFrames()
			if len(annotated) == 0 {
				target = m.session.Frame
				return
			}
			target = annotated[0]
			if last {
				target = annotated[len(annotated)-1]
			}
		})
	}
	m.setFrame(target)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Init initializes the annotator
func (m *AnnotatorModel) Init() tea.Cmd {
	return nil
}

type annotatedMsg struct {
	res     *commands.AnnotateResult
	autoRun bool
}

type annotateErrMsg struct {
	err error
}

type segmentedMsg struct {
	res *commands.SegmentResult
	err error
}

type clearObjectConfirmedMsg struct {
	sel application.Selection
}

type confirmCancelledMsg struct{}

// Update handles messages for the annotator
func (m *AnnotatorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case annotatedMsg:
		m.SetMessage(msg.res.Message, false)
		cmds := []tea.Cmd{m.changed(true)}
		if msg.autoRun {
			cmds = append(cmds, m.segment(msg.res.Selection))
		}
		return m, tea.Batch(cmds...)

	case annotateErrMsg:
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case segmentedMsg:
		m.segmenting = false
		if msg.err != nil {
			m.SetMessage(msg.err.Error(), true)
			return m, nil
		}
		committed := msg.res.Outcome == application.OutcomeCommitted
		m.SetMessage(msg.res.Message, !committed)
		if committed {
			return m, m.changed(true)
		}
		return m, nil

	case clearObjectConfirmedMsg:
		return m, m.run(commands.NewClearObjectCommand(m.deps.Workspace, msg.sel), false)

	case confirmCancelledMsg:
		m.ClearMessage()
		return m, nil

	case tea.KeyMsg:
		if handled, cmd := m.confirm.HandleKeyMsg(msg,
			func() tea.Msg { return clearObjectConfirmedMsg{sel: m.selection()} },
			func() tea.Msg { return confirmCancelledMsg{} },
		); handled {
			return m, cmd
		}
		if m.form != nil {
			return m, m.updateForm(msg)
		}
		return m, m.handleKey(msg)
	}

	if m.form != nil {
		return m, m.form.Update(msg)
	}
	return m, nil
}

func (m *AnnotatorModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.ClearMessage()
	before := m.session

	switch {
	case key.Matches(msg, m.keys.Quit):
		return func() tea.Msg { return QuitMsg{} }

	case key.Matches(msg, m.keys.Back):
		return tea.Batch(m.changed(false), func() tea.Msg { return SwitchToVideosMsg{} })

	case key.Matches(msg, m.keys.Help):
		return func() tea.Msg { return SwitchToHelpMsg{} }

	case key.Matches(msg, m.keys.Prev):
		m.step(-1)
	case key.Matches(msg, m.keys.Next):
		m.step(1)
	case key.Matches(msg, m.keys.JumpBack):
		m.step(-jumpSize)
	case key.Matches(msg, m.keys.JumpForward):
		m.step(jumpSize)
	case key.Matches(msg, m.keys.First):
		m.edge(false)
	case key.Matches(msg, m.keys.Last):
		m.edge(true)

	case key.Matches(msg, m.keys.PrevObject):
		m.session.ObjID = max(domain.DefaultObjectID, m.session.ObjID-1)
	case key.Matches(msg, m.keys.NextObject):
		m.session.ObjID++

	case key.Matches(msg, m.keys.Mode):
		if m.session.Mode == domain.ModePoint {
			m.session.Mode = domain.ModeBox
		} else {
			m.session.Mode = domain.ModePoint
		}
		m.SetMessage("Mode: "+m.session.Mode, false)

	case key.Matches(msg, m.keys.Filter):
		m.session.ShowOnlyAnnotated = !m.session.ShowOnlyAnnotated
		if m.session.ShowOnlyAnnotated {
			m.SetMessage("Showing only annotated frames", false)
		} else {
			m.SetMessage("Showing all frames", false)
		}

	case key.Matches(msg, m.keys.Class):
		return m.cycleClass()

	case key.Matches(msg, m.keys.Add):
		m.openForm()
		return m.form.Init()

	case key.Matches(msg, m.keys.Undo):
		return m.removeLastPoint()

	case key.Matches(msg, m.keys.Segment):
		return m.segment(m.selection())

	case key.Matches(msg, m.keys.AutoRun):
		return m.toggleAutoRun()

	case key.Matches(msg, m.keys.ClearPrompts):
		m.deps.Workflow.ClearPrompts(m.selection())
		m.SetMessage("Cleared prompts", false)

	case key.Matches(msg, m.keys.ClearMask):
		return m.run(commands.NewClearMaskCommand(m.deps.Workspace, m.deps.Workflow, m.selection()), false)

	case key.Matches(msg, m.keys.ClearObject):
		m.confirm.Ask(fmt.Sprintf("Clear object %d on frame %d?", m.session.ObjID, m.session.Frame))

	case key.Matches(msg, m.keys.Copy):
		path, ok := m.framePath()
		if !ok {
			m.SetMessage("No frame to copy", true)
			break
		}
		if err := m.deps.CopyText(path); err != nil {
			m.SetMessage(fmt.Sprintf("Copy failed: %v", err), true)
		} else {
			m.SetMessage("Copied "+path, false)
		}

	case key.Matches(msg, m.keys.Open):
		m.openFrame()

	case key.Matches(msg, m.keys.Edit):
		path := m.deps.Workspace.Project().DescriptorPath()
		return func() tea.Msg { return OpenEditorMsg{Path: path} }

	case key.Matches(msg, m.keys.Save):
		if m.deps.Save == nil {
			break
		}
		if err := m.deps.Save(); err != nil {
			m.SetMessage(fmt.Sprintf("Save failed: %v", err), true)
		} else {
			m.SetMessage("Saved", false)
		}
	}

	if m.session != before {
		return m.changed(false)
	}
	return nil
}

func (m *AnnotatorModel) changed(mutated bool) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		return SessionChangedMsg{Session: s, Mutated: mutated}
	}
}

type executor interface {
	Execute(ctx context.Context) (*commands.AnnotateResult, error)
}

// run executes an annotation command off the update loop
func (m *AnnotatorModel) run(c executor, autoRun bool) tea.Cmd {
	return func() tea.Msg {
		res, err := c.Execute(context.Background())
		if err != nil {
			return annotateErrMsg{err: err}
		}
		return annotatedMsg{res: res, autoRun: autoRun}
	}
}

func (m *AnnotatorModel) segment(sel application.Selection) tea.Cmd {
	if m.segmenting {
		m.SetMessage("Segmentation already running", false)
		return nil
	}
	if status := m.deps.Workflow.Status(); !status.Ready() {
		m.SetMessage("Segmentation unavailable: "+status.Reason, true)
		return nil
	}
	m.segmenting = true
	m.SetMessage("Segmenting...", false)

	c := commands.NewSegmentCommand(m.deps.Workspace, m.deps.Workflow, sel)
	return func() tea.Msg {
		res, err := c.Execute(context.Background())
		return segmentedMsg{res: res, err: err}
	}
}

func (m *AnnotatorModel) toggleAutoRun() tea.Cmd {
	on := !m.deps.Workflow.AutoRun()
	m.deps.Workflow.SetAutoRun(on)
	err := m.deps.Workspace.UpdateProject(func(p *domain.Project) error {
		p.Oracle.AutoRun = on
		return nil
	})
	if err != nil {
		m.SetMessage(err.Error(), true)
		return nil
	}
	m.SetMessage("Auto-run "+onOff(on), false)
	return m.changed(true)
}

func (m *AnnotatorModel) cycleClass() tea.Cmd {
	classes := m.deps.Workspace.Project().Classes
	if len(classes) == 0 {
		return nil
	}

	current := m.currentObject().ClassName
	if current == "" {
		current = m.session.Class
	}
	next := classes[0].Name
	for i, c := range classes {
		if c.Name == current {
			if i+1 < len(classes) {
				next = classes[i+1].Name
			} else {
				next = ""
			}
			break
		}
	}

	m.session.Class = next
	return m.run(commands.NewClassCommand(m.deps.Workspace, m.selection(), next), false)
}

// removeLastPoint drops the newest committed point. Transient prompts are
// cleared too, so the next segmentation uses the committed state.
func (m *AnnotatorModel) removeLastPoint() tea.Cmd {
	obj := m.currentObject()
	if len(obj.Points) == 0 {
		m.SetMessage("No points to remove", false)
		return nil
	}
	last := len(obj.Points) - 1
	pt, label := obj.Points[last], obj.Labels[last]
	m.deps.Workflow.ClearPrompts(m.selection())
	return m.run(commands.NewPointCommand(m.deps.Workspace, m.selection(), pt.X, pt.Y, label, true), m.deps.Workflow.AutoRun())
}

func (m *AnnotatorModel) openFrame() {
	if m.deps.Viewer == nil {
		m.SetMessage("No image viewer configured", true)
		return
	}
	path, ok := m.framePath()
	if !ok {
		m.SetMessage("No frame to open", true)
		return
	}
	if err := m.deps.Viewer.OpenFile(path); err != nil {
		m.SetMessage(fmt.Sprintf("Open failed: %v", err), true)
		return
	}
	m.SetMessage("Opened "+filepath.Base(path), false)
}

func (m *AnnotatorModel) openForm() {
	m.formMode = m.session.Mode
	if m.formMode == domain.ModePoint {
		m.form = NewForm("add point",
			pairField("Point (x,y)", "120,80"),
			NewFormField("Label (1 foreground, 0 background)", "1", 1, ValidateLabelInput),
		)
		return
	}
	m.form = NewForm("set box",
		pairField("First corner (x,y)", "10,10"),
		pairField("Opposite corner (x,y)", "200,150"),
	)
}

func pairField(label, example string) FormField {
	f := NewFormField(label, "", 20, ValidatePair)
	f.Input.Placeholder = example
	return f
}

func (m *AnnotatorModel) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.form.Keys.Cancel):
		m.form = nil
		return nil
	case key.Matches(msg, m.form.Keys.Submit):
		cmd, err := m.submitForm()
		if err != nil {
			m.SetMessage(err.Error(), true)
			return nil
		}
		m.form = nil
		return cmd
	}
	return m.form.Update(msg)
}

func (m *AnnotatorModel) submitForm() (tea.Cmd, error) {
	sel := m.selection()
	wf := m.deps.Workflow

	if m.formMode == domain.ModePoint {
		x, y, err := ParsePair(m.form.Value(0))
		if err != nil {
			return nil, err
		}
		label, err := m.form.Int(1)
		if err != nil {
			return nil, err
		}
		c := commands.NewPointCommand(m.deps.Workspace, sel, x, y, label, false)
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if err := wf.AddPrompt(sel, x, y, label); err != nil {
			return nil, err
		}
		return m.run(c, wf.AutoRun()), nil
	}

	x0, y0, err := ParsePair(m.form.Value(0))
	if err != nil {
		return nil, err
	}
	x1, y1, err := ParsePair(m.form.Value(1))
	if err != nil {
		return nil, err
	}
	box := application.NormalizeBox(x0, y0, x1, y1)
	c := commands.NewBoxCommand(m.deps.Workspace, sel, box)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	wf.SetPromptBox(sel, &box)
	return m.run(c, wf.AutoRun()), nil
}

// ParsePair parses "x,y" (spaces allowed) into two non-negative integers
func ParsePair(s string) (int, int, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected x,y, got %q", s)
	}
	x, errX := strconv.Atoi(parts[0])
	y, errY := strconv.Atoi(parts[1])
	if errX != nil || errY != nil {
		return 0, 0, fmt.Errorf("expected integer coordinates, got %q", s)
	}
	if x < 0 || y < 0 {
		return 0, 0, fmt.Errorf("coordinates must be non-negative, got %q", s)
	}
	return x, y, nil
}

func (m *AnnotatorModel) framePath() (string, bool) {
	var (
		path string
		ok   bool
	)
	_ = m.deps.Workspace.View(m.session.VideoID, func(s *domain.AnnotationStore) {
		path, ok = s.FramePath(m.session.Frame)
	})
	return path, ok
}

func (m *AnnotatorModel) currentObject() domain.ObjectAnnotation {
	var obj domain.ObjectAnnotation
	_ = m.deps.Workspace.View(m.session.VideoID, func(s *domain.AnnotationStore) {
		obj, _ = s.GetObject(m.session.Frame, m.session.ObjID)
	})
	return obj
}

// View renders the annotator
func (m *AnnotatorModel) View() string {
	v := NewViewBuilder()
	p := m.deps.Workspace.Project()

	v.Title("TraceWave · " + p.Name)

	if m.frames == 0 {
		v.Subtitle(fmt.Sprintf("%s (%s)", m.video.Name, m.video.ID))
		v.Muted("No frames found in " + p.VideoFramesPath(m.video))
		v.BlankLine()
		v.Message(m.Message, m.MessageErr)
		v.Help(m.keys.Back, m.keys.Help, m.keys.Quit)
		return v.String()
	}

	var (
		objects   map[int]domain.ObjectAnnotation
		annotated []int
		path      string
	)
	_ = m.deps.Workspace.View(m.session.VideoID, func(s *domain.AnnotationStore) {
		objects = s.Objects(m.session.Frame)
		annotated = s.AnnotatedFrames()
		path, _ = s.FramePath(m.session.Frame)
	})

	v.Subtitle(fmt.Sprintf("%s (%s) · frame %d/%d · %s",
		m.video.Name, m.video.ID, m.session.Frame+1, m.frames, filepath.Base(path)))

	width := max(20, m.Width-6)
	v.Line(RenderTimeline(m.frames, m.session.Frame, annotated, width))
	v.BlankLine()

	v.Line(m.renderStatus(p))
	v.BlankLine()

	v.Line(styles.InputLabel.Render("Objects on this frame"))
	ids := sortedKeys(objects)
	if len(ids) == 0 {
		v.Muted("  none")
	}
	for _, id := range ids {
		v.Line(m.renderObject(id, objects[id], p))
	}
	if _, ok := objects[m.session.ObjID]; !ok {
		v.Line(styles.ObjectActive.Render(fmt.Sprintf("▸ #%d", m.session.ObjID)) + " " + RenderMuted("(new)"))
	}
	v.BlankLine()

	if prompts := m.deps.Workflow.Prompts(m.selection()); !prompts.Empty() {
		v.Line(RenderLabelValue("Prompts", renderPrompts(prompts)))
		v.BlankLine()
	}

	v.Message(m.Message, m.MessageErr)

	if m.confirm.Active {
		v.Line(m.confirm.View())
		return v.String()
	}

	if m.form != nil {
		v.Raw(m.form.View())
		return v.String()
	}

	v.Help(m.keys.Prev, m.keys.Next, m.keys.Add, m.keys.Mode, m.keys.Segment, m.keys.Class, m.keys.Help, m.keys.Quit)
	return v.String()
}

func (m *AnnotatorModel) renderStatus(p domain.Project) string {
	filter := "all frames"
	if m.session.ShowOnlyAnnotated {
		filter = "annotated only"
	}
	class := RenderMuted("none")
	for _, c := range p.Classes {
		if c.Name == m.session.Class {
			class = styles.ClassSwatch(c.Name, c.Color)
		}
	}

	oracle := styles.Success.Render("ready")
	if status := m.deps.Workflow.Status(); !status.Ready() {
		oracle = styles.WarningMsg.Render("unavailable: " + status.Reason)
	}
	if m.segmenting {
		oracle = styles.WarningMsg.Render("segmenting...")
	}

	return strings.Join([]string{
		RenderLabelValue("Mode", m.session.Mode),
		RenderLabelValue("Object", strconv.Itoa(m.session.ObjID)),
		RenderLabelValue("Class", class),
		RenderLabelValue("Filter", filter),
		RenderLabelValue("Auto-run", onOff(m.deps.Workflow.AutoRun())),
		RenderLabelValue("Oracle", oracle),
	}, "  ")
}

func (m *AnnotatorModel) renderObject(id int, obj domain.ObjectAnnotation, p domain.Project) string {
	marker := "  "
	style := styles.ObjectIdle
	if id == m.session.ObjID {
		marker = "▸ "
		style = styles.ObjectActive
	}

	parts := []string{style.Render(fmt.Sprintf("%s#%d", marker, id))}
	if obj.ClassName != "" {
		color := ""
		for _, c := range p.Classes {
			if c.Name == obj.ClassName {
				color = c.Color
			}
		}
		parts = append(parts, styles.ClassSwatch(obj.ClassName, color))
	}
	if len(obj.Points) > 0 {
		fg, bg := 0, 0
		for _, l := range obj.Labels {
			if l == domain.LabelForeground {
				fg++
			} else {
				bg++
			}
		}
		parts = append(parts, styles.PointFg.Render(fmt.Sprintf("+%d", fg))+" "+styles.PointBg.Render(fmt.Sprintf("-%d", bg)))
	}
	if obj.Box != nil {
		b := obj.Box
		text := fmt.Sprintf("box %d,%d %dx%d", b.X, b.Y, b.W, b.H)
		if !b.Valid() {
			text += " (empty)"
		}
		parts = append(parts, styles.Box.Render(text))
	}
	if obj.HasPolygon() {
		parts = append(parts, styles.Polygon.Render(fmt.Sprintf("polygon %d vertices", len(obj.Polygon))))
	}
	if !obj.HasContent() {
		parts = append(parts, RenderMuted("(empty)"))
	}
	return strings.Join(parts, "  ")
}

func renderPrompts(p application.Prompts) string {
	var parts []string
	if fg := p.Foreground(); len(fg) > 0 {
		parts = append(parts, styles.PointFg.Render(fmt.Sprintf("%d foreground", len(fg))))
	}
	if bg := p.Background(); len(bg) > 0 {
		parts = append(parts, styles.PointBg.Render(fmt.Sprintf("%d background", len(bg))))
	}
	if p.Box != nil && p.Box.Valid() {
		parts = append(parts, styles.Box.Render(fmt.Sprintf("box %d,%d %dx%d", p.Box.X, p.Box.Y, p.Box.W, p.Box.H)))
	}
	return strings.Join(parts, ", ")
}

// RenderTimeline draws one cell per group of frames: annotated groups are
// marked and the cell holding the cursor is highlighted
func RenderTimeline(total, cursor int, annotated []int, width int) string {
	cells := TimelineCells(total, cursor, annotated, width)
	var b strings.Builder
	for _, r := range cells {
		switch r {
		case timelineCursor:
			b.WriteString(styles.TimelineCursor.Render(string(r)))
		case timelineMarked:
			b.WriteString(styles.TimelineMarked.Render(string(r)))
		default:
			b.WriteString(styles.TimelineEmpty.Render(string(r)))
		}
	}
	return b.String()
}

const (
	timelineEmpty  = '·'
	timelineMarked = '█'
	timelineCursor = '▼'
)

// TimelineCells returns the unstyled timeline runes
func TimelineCells(total, cursor int, annotated []int, width int) []rune {
	if total <= 0 || width <= 0 {
		return nil
	}
	n := min(total, width)
	cells := make([]rune, n)
	for i := range cells {
		cells[i] = timelineEmpty
	}
	cell := func(frame int) int { return frame * n / total }
	for _, f := range annotated {
		if f >= 0 && f < total {
			cells[cell(f)] = timelineMarked
		}
	}
	if cursor >= 0 && cursor < total {
		cells[cell(cursor)] = timelineCursor
	}
	return cells
}

func sortedKeys(objects map[int]domain.ObjectAnnotation) []int {
	ids := make([]int, 0, len(objects))
	for id := range objects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
