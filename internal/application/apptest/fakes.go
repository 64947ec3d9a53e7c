// Package apptest provides in-memory port implementations for tests
package apptest

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"tracewave/internal/application"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// Projects is an in-memory ports.ProjectRepository
type Projects struct {
	mu        sync.Mutex
	Project   *domain.Project
	Warning   string
	LoadErr   error
	SaveErr   error
	CreateErr error
	Saves     int
	Saved     *domain.Project
}

var _ ports.ProjectRepository = (*Projects)(nil)

func (p *Projects) Create(root, name string, force bool) (*domain.Project, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.CreateErr != nil {
		return nil, p.CreateErr
	}
	p.Project = domain.NewProject(root, name, time.Now().UTC())
	return copyProject(p.Project), nil
}

func (p *Projects) Load(descriptorPath string) (*domain.Project, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.LoadErr != nil {
		return nil, "", p.LoadErr
	}
	if p.Project == nil {
		return nil, "", fmt.Errorf("%s: %w", descriptorPath, application.ErrNotFound)
	}
	return copyProject(p.Project), p.Warning, nil
}

func (p *Projects) Save(proj *domain.Project) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SaveErr != nil {
		return p.SaveErr
	}
	p.Saves++
	p.Saved = copyProject(proj)
	return nil
}

func copyProject(p *domain.Project) *domain.Project {
	c := *p
	c.Videos = slices.Clone(p.Videos)
	c.Classes = slices.Clone(p.Classes)
	return &c
}

// Annotations is an in-memory ports.AnnotationRepository
type Annotations struct {
	mu      sync.Mutex
	File    ports.AnnotationFile
	LoadErr error
	SaveErr error
	Saves   int
	Saved   []domain.Record
}

var _ ports.AnnotationRepository = (*Annotations)(nil)

func (a *Annotations) Load(path string) (*ports.AnnotationFile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.LoadErr != nil {
		return nil, a.LoadErr
	}
	f := a.File
	f.Records = slices.Clone(a.File.Records)
	return &f, nil
}

func (a *Annotations) Save(path string, records []domain.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.SaveErr != nil {
		return a.SaveErr
	}
	a.Saves++
	a.Saved = slices.Clone(records)
	return nil
}

// SaveCount returns the number of successful saves
func (a *Annotations) SaveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Saves
}

// Frames is an in-memory ports.FrameLister keyed by absolute directory
type Frames struct {
	Dirs map[string][]string
}

var _ ports.FrameLister = (*Frames)(nil)

func (f *Frames) ListFrames(dir string) ([]string, error) {
	frames, ok := f.Dirs[dir]
	if !ok {
		return nil, fmt.Errorf("%s: %w", dir, application.ErrNotFound)
	}
	return slices.Clone(frames), nil
}

// Images is a ports.ImageLoader returning a fixed image
type Images struct {
	Image *ports.RGBImage
	Err   error
	Paths []string
}

var _ ports.ImageLoader = (*Images)(nil)

func (i *Images) LoadRGB(path string) (*ports.RGBImage, error) {
	i.Paths = append(i.Paths, path)
	if i.Err != nil {
		return nil, i.Err
	}
	return i.Image, nil
}

// Oracle is a scripted ports.SegmentationOracle
type Oracle struct {
	State    ports.OracleStatus
	Mask     *domain.Mask
	Err      error
	Requests []ports.SegmentRequest
}

var _ ports.SegmentationOracle = (*Oracle)(nil)

func (o *Oracle) Status() ports.OracleStatus {
	return o.State
}

func (o *Oracle) Segment(ctx context.Context, req ports.SegmentRequest) (*domain.Mask, error) {
	o.Requests = append(o.Requests, req)
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Mask, nil
}

// Extractor replays scripted import events
type Extractor struct {
	CheckErr error
	Events   []ports.ImportEvent
	Requests []ports.ImportRequest
}

var _ ports.FrameExtractor = (*Extractor)(nil)

func (e *Extractor) Check() error {
	return e.CheckErr
}

func (e *Extractor) Import(ctx context.Context, req ports.ImportRequest) <-chan ports.ImportEvent {
	e.Requests = append(e.Requests, req)
	ch := make(chan ports.ImportEvent, len(e.Events))
	for _, ev := range e.Events {
		ch <- ev
	}
	close(ch)
	return ch
}

// Exporter records exports in memory
type Exporter struct {
	Fail    map[string]error // keyed by directory
	Exports map[string][]domain.Record
}

var _ ports.PromptExporter = (*Exporter)(nil)

func (e *Exporter) Export(dir, baseName string, records []domain.Record) (string, error) {
	if err := e.Fail[dir]; err != nil {
		return "", err
	}
	if e.Exports == nil {
		e.Exports = make(map[string][]domain.Record)
	}
	path := filepath.Join(dir, baseName+".yaml")
	e.Exports[path] = records
	return path, nil
}

// Index records the content of the last sync
type Index struct {
	Synced  []domain.Record
	SyncErr error
	Syncs   int
}

var _ ports.AnnotationIndex = (*Index)(nil)

func (i *Index) Open(string) error { return nil }
func (i *Index) Close() error      { return nil }

func (i *Index) Sync(records []domain.Record) (*ports.SyncStats, error) {
	if i.SyncErr != nil {
		return nil, i.SyncErr
	}
	i.Syncs++
	i.Synced = slices.Clone(records)
	return &ports.SyncStats{Objects: len(records)}, nil
}

func (i *Index) VideoStats() ([]ports.VideoStats, error)          { return nil, nil }
func (i *Index) ClassCounts() ([]ports.ClassCount, error)         { return nil, nil }
func (i *Index) FramesWithClass(string) ([]ports.FrameRef, error) { return nil, nil }

func (i *Index) BeginTx() (ports.IndexTx, error) {
	return nil, fmt.Errorf("%w: transactions", application.ErrUnavailable)
}

// VideoSpec describes a video of a test project
type VideoSpec struct {
	ID     string
	Frames int
}

// Env is a workspace opened over in-memory adapters
type Env struct {
	Root        string
	Projects    *Projects
	Annotations *Annotations
	Frames      *Frames
	Index       *Index
	Workspace   *application.Workspace
}

// FramesDir returns the absolute frames directory of a video in the env
func (e *Env) FramesDir(videoID string) string {
	return filepath.Join(e.Root, domain.DefaultFramesRoot, videoID)
}

// NewEnv opens a workspace over a project containing the given videos and saved records
func NewEnv(t testing.TB, videos []VideoSpec, records ...domain.Record) *Env {
	t.Helper()

	root := filepath.Join(string(filepath.Separator), "proj")
	p := domain.NewProject(root, "test", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	env := &Env{
		Root:        root,
		Projects:    &Projects{Project: p},
		Annotations: &Annotations{File: ports.AnnotationFile{SchemaVersion: domain.AnnotationSchemaVersion, Records: records}},
		Frames:      &Frames{Dirs: make(map[string][]string)},
		Index:       &Index{},
	}

	for _, v := range videos {
		p.Videos = append(p.Videos, domain.VideoItem{
			ID:         v.ID,
			Name:       v.ID,
			SourcePath: "/videos/" + v.ID + ".mp4",
			FramesDir:  domain.DefaultFramesRoot + "/" + v.ID,
			FrameCount: v.Frames,
		})
		dir := env.FramesDir(v.ID)
		frames := make([]string, v.Frames)
		for i := range frames {
			frames[i] = filepath.Join(dir, fmt.Sprintf("%05d.jpg", i))
		}
		env.Frames.Dirs[dir] = frames
	}

	env.Workspace = application.NewWorkspace(application.WorkspaceDeps{
		Projects:    env.Projects,
		Annotations: env.Annotations,
		Frames:      env.Frames,
		Index:       env.Index,
	})
	if err := env.Workspace.Open(p.DescriptorPath()); err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	return env
}

// SquareMask returns a w x h mask with a filled square of side n at (x, y)
func SquareMask(w, h, x, y, n int) *domain.Mask {
	m := domain.NewMask(w, h)
	for j := y; j < y+n; j++ {
		for i := x; i < x+n; i++ {
			m.Set(i, j, true)
		}
	}
	return m
}

// Image returns a blank RGB image
func Image(w, h int) *ports.RGBImage {
	return &ports.RGBImage{Width: w, Height: h, Pix: make([]byte, w*h*3)}
}
