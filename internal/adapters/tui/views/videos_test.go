package views

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"tracewave/internal/application/apptest"
	"tracewave/internal/config"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// drainVideos runs cmd and feeds the video list's own messages back into it
func drainVideos(m *VideosModel, cmd tea.Cmd) []tea.Msg {
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
		case importEventMsg, importDoneMsg, exportDoneMsg, statsDoneMsg:
			_, next := m.Update(msg)
			queue = append(queue, next)
		default:
			out = append(out, msg)
		}
	}
	return out
}

func newVideos(t *testing.T, deps VideosDeps, specs ...apptest.VideoSpec) (*VideosModel, *apptest.Env) {
	t.Helper()
	env := apptest.NewEnv(t, specs,
		domain.Record{VideoID: "v1", FrameIdx: 0, ObjID: 1, Class: "default", Points: []domain.Point{{X: 1, Y: 1}}, Labels: []int{1}},
	)
	deps.Workspace = env.Workspace
	if deps.Import == (config.ImportSettings{}) {
		deps.Import = config.ImportSettings{Quality: 2, Threads: 4, Workers: 1}
	}
	return NewVideosModel(deps), env
}

func TestVideos_OpenSelected(t *testing.T) {
	m, _ := newVideos(t, VideosDeps{}, apptest.VideoSpec{ID: "v1", Frames: 2}, apptest.VideoSpec{ID: "v2", Frames: 3})

	_, cmd := m.Update(keyPress("j"))
	drainVideos(m, cmd)
	_, cmd = m.Update(keyPress("enter"))
	msgs := drainVideos(m, cmd)

	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if got, ok := msgs[0].(SwitchToAnnotatorMsg); !ok || got.VideoID != "v2" {
		t.Errorf("got %#v, want SwitchToAnnotatorMsg{v2}", msgs[0])
	}
}

func TestVideos_OpenWithoutVideos(t *testing.T) {
	m, _ := newVideos(t, VideosDeps{})

	_, cmd := m.Update(keyPress("enter"))

	if cmd != nil {
		t.Error("expected no command")
	}
	if !m.MessageErr {
		t.Errorf("expected an error message, got %q", m.Message)
	}
}

func TestVideos_ImportReportsProgressAndFailures(t *testing.T) {
	ext := &apptest.Extractor{Events: []ports.ImportEvent{
		{Kind: ports.ImportProgress, Index: 1, Total: 2, Source: "/v/a.mp4", Message: "Extracting a.mp4"},
		{Kind: ports.ImportProgress, Index: 1, Total: 2, Source: "/v/a.mp4", Message: "Extracted a.mp4"},
		{Kind: ports.ImportItemError, Index: 2, Total: 2, Source: "/v/b.mp4", Message: "b.mp4: ffmpeg failed", Err: errors.New("exit status 1")},
		{Kind: ports.ImportFinished, Total: 2, Message: "Done", Results: []ports.ImportResult{
			{SourcePath: "/v/a.mp4", FramesDir: "/proj/frames/a", FrameCount: 3},
		}},
	}}
	m, env := newVideos(t, VideosDeps{Extractor: ext, Import: config.ImportSettings{Quality: 2, Threads: 6, Workers: 1}},
		apptest.VideoSpec{ID: "v1", Frames: 2})

	m.Update(keyPress("i"))
	if m.form == nil {
		t.Fatal("import form not opened")
	}
	m.form.SetValue(0, "/v/a.mp4, /v/b.mp4")
	m.form.SetValue(1, "5")
	m.form.SetValue(2, "2")
	_, cmd := m.Update(keyPress("enter"))
	if !m.Importing() {
		t.Fatal("import not started")
	}
	drainVideos(m, cmd)

	if m.Importing() {
		t.Error("import still running")
	}
	if got := m.Percent(); got != 0.75 {
		t.Errorf("Percent() = %v, want 0.75", got)
	}
	if !reflect.DeepEqual(m.failures, []string{"b.mp4: ffmpeg failed"}) {
		t.Errorf("failures = %v", m.failures)
	}
	if !strings.Contains(m.Message, "Imported 1 of 2 videos, 1 failed") {
		t.Errorf("message = %q", m.Message)
	}

	req := ext.Requests[0]
	if req.Quality != 5 || req.Workers != 2 || req.Threads != 6 {
		t.Errorf("request = %+v", req)
	}
	if !reflect.DeepEqual(req.Sources, []string{"/v/a.mp4", "/v/b.mp4"}) {
		t.Errorf("sources = %v", req.Sources)
	}

	videos := env.Workspace.Videos()
	if len(videos) != 2 {
		t.Fatalf("got %d videos, want 2", len(videos))
	}
	if sel, _ := m.Selected(); sel.ID != videos[1].ID {
		t.Errorf("selected %q, want the imported video %q", sel.ID, videos[1].ID)
	}
}

func TestVideos_ImportValidation(t *testing.T) {
	m, _ := newVideos(t, VideosDeps{Extractor: &apptest.Extractor{}}, apptest.VideoSpec{ID: "v1", Frames: 2})

	m.Update(keyPress("i"))
	m.form.SetValue(0, " , ")
	_, cmd := m.Update(keyPress("enter"))

	if cmd != nil || m.Importing() {
		t.Fatal("import must not start without sources")
	}
	if m.form == nil {
		t.Error("form closed on invalid input")
	}
	if !strings.Contains(m.Message, "sources") {
		t.Errorf("message = %q", m.Message)
	}
}

func TestVideos_ImportNotConfigured(t *testing.T) {
	m, _ := newVideos(t, VideosDeps{}, apptest.VideoSpec{ID: "v1", Frames: 2})

	m.Update(keyPress("i"))

	if m.form != nil {
		t.Error("form opened without an extractor")
	}
	if !m.MessageErr {
		t.Errorf("message = %q", m.Message)
	}
}

func TestVideos_Export(t *testing.T) {
	exp := &apptest.Exporter{}
	m, env := newVideos(t, VideosDeps{Exporter: exp}, apptest.VideoSpec{ID: "v1", Frames: 2}, apptest.VideoSpec{ID: "v2", Frames: 1})

	_, cmd := m.Update(keyPress("e"))
	drainVideos(m, cmd)

	if m.Message != "Exported 2 of 2 videos" {
		t.Errorf("message = %q", m.Message)
	}
	path := filepath.Join(env.FramesDir("v1"), "v1.yaml")
	if len(exp.Exports[path]) != 1 {
		t.Errorf("exports = %v", exp.Exports)
	}
}

func TestVideos_ExportFailureNamesVideo(t *testing.T) {
	m, env := newVideos(t, VideosDeps{}, apptest.VideoSpec{ID: "v1", Frames: 2})
	m.deps.Exporter = &apptest.Exporter{Fail: map[string]error{env.FramesDir("v1"): os.ErrPermission}}

	_, cmd := m.Update(keyPress("e"))
	drainVideos(m, cmd)

	if !m.MessageErr || !strings.Contains(m.Message, "v1:") {
		t.Errorf("message = %q", m.Message)
	}
}

func TestVideos_Stats(t *testing.T) {
	m, _ := newVideos(t, VideosDeps{}, apptest.VideoSpec{ID: "v1", Frames: 2})

	_, cmd := m.Update(keyPress("s"))
	drainVideos(m, cmd)

	if m.stats == nil {
		t.Fatal("stats not loaded")
	}
	if m.stats.Videos[0].AnnotatedFrames != 1 {
		t.Errorf("annotated frames = %d, want 1", m.stats.Videos[0].AnnotatedFrames)
	}
	out := m.View()
	if !strings.Contains(out, "Statistics") || !strings.Contains(out, "default 1") {
		t.Errorf("view missing statistics:\n%s", out)
	}
}

func TestSplitSources(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got := SplitSources(" a.mp4 ,, ~/b.mov,")
	want := []string{"a.mp4", filepath.Join(home, "b.mov")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitSources() = %v, want %v", got, want)
	}
	if got := SplitSources(""); got != nil {
		t.Errorf("SplitSources(\"\") = %v, want nil", got)
	}
}

func TestListWindow_ScrollsWithCursor(t *testing.T) {
	w := NewListWindow(5)
	w.SetLen(25)

	w.SetCursor(7)
	if start, end := w.Range(); start != 3 || end != 8 {
		t.Errorf("Range() = %d,%d, want 3,8", start, end)
	}

	w.Move(-5)
	if start, _ := w.Range(); start != 2 {
		t.Errorf("start = %d after moving up, want 2", start)
	}

	if !w.PageDown() || w.Cursor() != 7 {
		t.Errorf("Cursor() = %d after PageDown, want 7", w.Cursor())
	}
	w.SetCursor(100)
	if w.Cursor() != 24 || w.Position() != "25/25" {
		t.Errorf("cursor %d (%s), want clamped to the last row", w.Cursor(), w.Position())
	}
	if w.Move(1) {
		t.Error("Move past the end reported a move")
	}
}

func TestListWindow_SetHeightKeepsCursorVisible(t *testing.T) {
	w := NewListWindow(10)
	w.SetLen(25)
	w.SetCursor(17)

	w.SetHeight(5)

	start, end := w.Range()
	if w.Cursor() < start || w.Cursor() >= end {
		t.Errorf("cursor %d outside %d,%d", w.Cursor(), start, end)
	}

	w.SetHeight(0)
	if s, e := w.Range(); s != start || e != end {
		t.Error("a non-positive height must be ignored")
	}
}

func TestListWindow_ShrinkingListClampsCursor(t *testing.T) {
	w := NewListWindow(3)
	w.SetLen(10)
	w.SetCursor(9)

	w.SetLen(2)

	if w.Cursor() != 1 {
		t.Errorf("Cursor() = %d, want 1", w.Cursor())
	}
	if start, end := w.Range(); start != 0 || end != 2 {
		t.Errorf("Range() = %d,%d, want 0,2", start, end)
	}

	w.SetLen(0)
	if w.Cursor() != 0 || w.Position() != "0/0" {
		t.Errorf("empty list: cursor %d, position %s", w.Cursor(), w.Position())
	}
}
