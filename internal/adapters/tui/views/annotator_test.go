package views

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"tracewave/internal/application"
	"tracewave/internal/application/apptest"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

func keyPress(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// drain runs cmd and feeds the annotator's own messages back into it.
// Messages meant for the app are returned.
func drain(m *AnnotatorModel, cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case annotatedMsg, annotateErrMsg, segmentedMsg, clearObjectConfirmedMsg, confirmCancelledMsg:
			_, next := m.Update(msg)
			queue = append(queue, next)
		default:
			out = append(out, msg)
		}
	}
	return out
}

type annotatorFixture struct {
	env    *apptest.Env
	oracle *apptest.Oracle
	wf     *application.Workflow
	m      *AnnotatorModel
	copied []string
}

func newAnnotator(t *testing.T, frames int, records ...domain.Record) *annotatorFixture {
	t.Helper()

	f := &annotatorFixture{
		env:    apptest.NewEnv(t, []apptest.VideoSpec{{ID: "v1", Frames: frames}}, records...),
		oracle: &apptest.Oracle{Mask: apptest.SquareMask(8, 8, 2, 2, 4)},
	}
	f.wf = application.NewWorkflow(f.oracle, &apptest.Images{Image: apptest.Image(8, 8)}, nil)
	f.m = NewAnnotatorModel(AnnotatorDeps{
		Workspace: f.env.Workspace,
		Workflow:  f.wf,
		CopyText: func(s string) error {
			f.copied = append(f.copied, s)
			return nil
		},
	}, application.SessionFromUI(domain.DefaultUIState()))

	if err := f.m.Open("v1"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return f
}

func (f *annotatorFixture) press(keys ...string) []tea.Msg {
	var out []tea.Msg
	for _, k := range keys {
		_, cmd := f.m.Update(keyPress(k))
		out = append(out, drain(f.m, cmd)...)
	}
	return out
}

func (f *annotatorFixture) object(frame, objID int) domain.ObjectAnnotation {
	var obj domain.ObjectAnnotation
	_ = f.env.Workspace.View("v1", func(s *domain.AnnotationStore) {
		obj, _ = s.GetObject(frame, objID)
	})
	return obj
}

func TestAnnotator_NavigationClamps(t *testing.T) {
	f := newAnnotator(t, 5)

	tests := []struct {
		key  string
		want int
	}{
		{"l", 1},
		{"l", 2},
		{"L", 4},
		{"l", 4},
		{"g", 0},
		{"h", 0},
		{"G", 4},
		{"H", 0},
	}
	for _, tt := range tests {
		f.press(tt.key)
		if got := f.m.Session().Frame; got != tt.want {
			t.Fatalf("after %q frame = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestAnnotator_NavigationReportsSessionChange(t *testing.T) {
	f := newAnnotator(t, 5)

	msgs := f.press("l")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	changed, ok := msgs[0].(SessionChangedMsg)
	if !ok {
		t.Fatalf("got %T, want SessionChangedMsg", msgs[0])
	}
	if changed.Mutated {
		t.Error("navigation must not be reported as a mutation")
	}
	if changed.Session.Frame != 1 {
		t.Errorf("session frame = %d, want 1", changed.Session.Frame)
	}
}

func TestAnnotator_OnlyAnnotatedFilter(t *testing.T) {
	f := newAnnotator(t, 6,
		domain.Record{VideoID: "v1", FrameIdx: 1, ObjID: 1, Points: []domain.Point{{X: 1, Y: 1}}, Labels: []int{1}},
		domain.Record{VideoID: "v1", FrameIdx: 4, ObjID: 1, Box: &domain.Box{X: 0, Y: 0, W: 2, H: 2}},
	)

	f.press("f")
	if !f.m.Session().ShowOnlyAnnotated {
		t.Fatal("filter not enabled")
	}

	steps := []struct {
		key  string
		want int
	}{
		{"l", 1},
		{"l", 4},
		{"l", 4},
		{"h", 1},
		{"G", 4},
		{"g", 1},
	}
	for _, s := range steps {
		f.press(s.key)
		if got := f.m.Session().Frame; got != s.want {
			t.Fatalf("after %q frame = %d, want %d", s.key, got, s.want)
		}
	}

	f.press("l", "l")
	if !strings.Contains(f.m.Message, "No more annotated frames") {
		t.Errorf("message = %q", f.m.Message)
	}
}

func TestAnnotator_ObjectIDStaysPositive(t *testing.T) {
	f := newAnnotator(t, 2)

	f.press("[")
	if got := f.m.Session().ObjID; got != 1 {
		t.Errorf("ObjID = %d, want 1", got)
	}
	f.press("]", "]")
	if got := f.m.Session().ObjID; got != 3 {
		t.Errorf("ObjID = %d, want 3", got)
	}
}

func TestAnnotator_AddPointThroughForm(t *testing.T) {
	f := newAnnotator(t, 3)
	f.press("l", "m")
	if f.m.Session().Mode != domain.ModePoint {
		t.Fatalf("mode = %q, want point", f.m.Session().Mode)
	}

	f.m.Update(keyPress("a"))
	if f.m.form == nil {
		t.Fatal("form not opened")
	}
	f.m.form.SetValue(0, "10, 20")
	f.m.form.SetValue(1, "0")
	msgs := f.press("enter")

	if f.m.form != nil {
		t.Error("form still open after submit")
	}
	obj := f.object(1, 1)
	if !reflect.DeepEqual(obj.Points, []domain.Point{{X: 10, Y: 20}}) || !reflect.DeepEqual(obj.Labels, []int{0}) {
		t.Errorf("object = %+v", obj)
	}
	prompts := f.wf.Prompts(application.Selection{VideoID: "v1", Frame: 1, ObjID: 1})
	if len(prompts.Background()) != 1 {
		t.Errorf("prompts = %+v, want one background point", prompts)
	}

	var mutated bool
	for _, msg := range msgs {
		if c, ok := msg.(SessionChangedMsg); ok && c.Mutated {
			mutated = true
		}
	}
	if !mutated {
		t.Errorf("no mutation reported, got %v", msgs)
	}
}

func TestAnnotator_BoxFormNormalizesCorners(t *testing.T) {
	f := newAnnotator(t, 3)

	f.m.Update(keyPress("a"))
	f.m.form.SetValue(0, "50,40")
	f.m.form.SetValue(1, "10,20")
	f.press("enter")

	obj := f.object(0, 1)
	want := domain.Box{X: 10, Y: 20, W: 40, H: 20}
	if obj.Box == nil || *obj.Box != want {
		t.Errorf("box = %+v, want %+v", obj.Box, want)
	}
}

func TestAnnotator_InvalidFormInputKeepsForm(t *testing.T) {
	f := newAnnotator(t, 3)
	f.press("m")

	f.m.Update(keyPress("a"))
	f.m.form.SetValue(0, "ten,20")
	f.press("enter")

	if f.m.form == nil {
		t.Fatal("form closed on invalid input")
	}
	if !f.m.MessageErr {
		t.Errorf("expected error message, got %q", f.m.Message)
	}
	if obj := f.object(0, 1); obj.HasContent() {
		t.Errorf("object mutated: %+v", obj)
	}

	f.press("esc")
	if f.m.form != nil {
		t.Error("esc did not close the form")
	}
}

func TestAnnotator_SegmentCommitsPolygon(t *testing.T) {
	f := newAnnotator(t, 3,
		domain.Record{VideoID: "v1", FrameIdx: 0, ObjID: 1, Points: []domain.Point{{X: 3, Y: 3}}, Labels: []int{1}},
	)

	f.press("s")

	obj := f.object(0, 1)
	if !obj.HasPolygon() {
		t.Fatalf("no polygon committed, message %q", f.m.Message)
	}
	if f.m.segmenting {
		t.Error("still segmenting")
	}
	if len(f.oracle.Requests) != 1 {
		t.Errorf("oracle called %d times, want 1", len(f.oracle.Requests))
	}
}

func TestAnnotator_SegmentUnavailable(t *testing.T) {
	f := newAnnotator(t, 3)
	f.oracle.State = ports.OracleStatus{State: ports.OracleUnavailable, Reason: "weights missing"}

	f.press("s")

	if !f.m.MessageErr || !strings.Contains(f.m.Message, "weights missing") {
		t.Errorf("message = %q", f.m.Message)
	}
	if len(f.oracle.Requests) != 0 {
		t.Error("oracle must not be called")
	}
}

func TestAnnotator_AutoRunSegmentsAfterPrompt(t *testing.T) {
	f := newAnnotator(t, 3)
	f.wf.SetAutoRun(true)
	f.press("m", "a")
	f.m.form.SetValue(0, "4,4")
	f.press("enter")

	if !f.object(0, 1).HasPolygon() {
		t.Errorf("auto-run did not commit a polygon, message %q", f.m.Message)
	}
}

func TestAnnotator_ToggleAutoRunUpdatesProject(t *testing.T) {
	f := newAnnotator(t, 3)

	msgs := f.press("t")

	if !f.wf.AutoRun() {
		t.Error("auto-run not enabled")
	}
	if !f.env.Workspace.Project().Oracle.AutoRun {
		t.Error("project oracle setting not updated")
	}
	if len(msgs) != 1 || !msgs[0].(SessionChangedMsg).Mutated {
		t.Errorf("messages = %v", msgs)
	}
}

func TestAnnotator_ClearObjectAsksFirst(t *testing.T) {
	f := newAnnotator(t, 3,
		domain.Record{VideoID: "v1", FrameIdx: 0, ObjID: 1, Points: []domain.Point{{X: 3, Y: 3}}, Labels: []int{1}},
	)

	f.press("d")
	if !f.m.confirm.Active {
		t.Fatal("confirmation not shown")
	}
	f.press("l")
	if f.m.Session().Frame != 0 {
		t.Error("keys must be swallowed while confirming")
	}
	f.press("n")
	if !f.object(0, 1).HasContent() {
		t.Fatal("object cleared after cancel")
	}

	f.press("d", "y")
	if f.object(0, 1).HasContent() {
		t.Error("object not cleared after confirm")
	}
}

func TestAnnotator_RemoveLastPoint(t *testing.T) {
	f := newAnnotator(t, 3,
		domain.Record{VideoID: "v1", FrameIdx: 0, ObjID: 1, Points: []domain.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}, Labels: []int{1, 0}},
	)
	sel := application.Selection{VideoID: "v1", Frame: 0, ObjID: 1}
	_ = f.wf.AddPrompt(sel, 9, 9, 1)

	f.press("u")

	obj := f.object(0, 1)
	if !reflect.DeepEqual(obj.Points, []domain.Point{{X: 1, Y: 1}}) {
		t.Errorf("points = %v", obj.Points)
	}
	if !f.wf.Prompts(sel).Empty() {
		t.Error("transient prompts not cleared")
	}
}

func TestAnnotator_CycleClass(t *testing.T) {
	f := newAnnotator(t, 3)

	for _, want := range []string{"default", "object", ""} {
		f.press("c")
		if got := f.object(0, 1).ClassName; got != want {
			t.Fatalf("class = %q, want %q", got, want)
		}
		if f.m.Session().Class != want {
			t.Errorf("session class = %q, want %q", f.m.Session().Class, want)
		}
	}
}

func TestAnnotator_CopyFramePath(t *testing.T) {
	f := newAnnotator(t, 3)
	f.press("l", "y")

	want := []string{f.env.FramesDir("v1") + "/00001.jpg"}
	if !reflect.DeepEqual(f.copied, want) {
		t.Errorf("copied = %v, want %v", f.copied, want)
	}
}

func TestAnnotator_ViewShowsObjects(t *testing.T) {
	f := newAnnotator(t, 3,
		domain.Record{VideoID: "v1", FrameIdx: 0, ObjID: 2, Class: "object", Box: &domain.Box{X: 1, Y: 2, W: 3, H: 4}},
	)

	out := f.m.View()
	for _, want := range []string{"frame 1/3", "#2", "box 1,2 3x4", "object"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestTimelineCells(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		cursor    int
		annotated []int
		width     int
		want      string
	}{
		{"one cell per frame", 5, 0, []int{2, 4}, 10, "▼·█·█"},
		{"grouped frames", 10, 9, []int{0, 1}, 5, "█···▼"},
		{"cursor wins", 4, 1, []int{1}, 4, "·▼··"},
		{"empty", 0, 0, nil, 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(TimelineCells(tt.total, tt.cursor, tt.annotated, tt.width))
			if got != tt.want {
				t.Errorf("TimelineCells() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePair(t *testing.T) {
	tests := []struct {
		in      string
		x, y    int
		wantErr bool
	}{
		{"10,20", 10, 20, false},
		{" 3 , 4 ", 3, 4, false},
		{"7 8", 7, 8, false},
		{"1", 0, 0, true},
		{"a,b", 0, 0, true},
		{"-1,2", 0, 0, true},
		{"1,2,3", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			x, y, err := ParsePair(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePair(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if x != tt.x || y != tt.y {
				t.Errorf("ParsePair(%q) = %d,%d, want %d,%d", tt.in, x, y, tt.x, tt.y)
			}
		})
	}
}
