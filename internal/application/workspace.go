package application

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// WorkspaceDeps wires a Workspace to its adapters. Index and Logger are optional.
type WorkspaceDeps struct {
	Projects    ports.ProjectRepository
	Annotations ports.AnnotationRepository
	Frames      ports.FrameLister
	Index       ports.AnnotationIndex
	Logger      *slog.Logger
}

// Workspace is an opened project with one AnnotationStore per video.
// All access to stores goes through Update and View, which serialize with Save.
type Workspace struct {
	mu           sync.Mutex
	deps         WorkspaceDeps
	logger       *slog.Logger
	project      *domain.Project
	stores       map[string]*domain.AnnotationStore
	orphans      []domain.Record
	report       domain.LoadReport
	projectDirty bool
}

// NewWorkspace creates an empty workspace
func NewWorkspace(deps WorkspaceDeps) *Workspace {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{
		deps:   deps,
		logger: logger,
		stores: make(map[string]*domain.AnnotationStore),
	}
}

// Open loads the project descriptor, builds a store per video and routes the
// saved annotations into them. On failure the workspace keeps what it had.
func (w *Workspace) Open(descriptorPath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, warning, err := w.deps.Projects.Load(descriptorPath)
	if err != nil {
		return fmt.Errorf("failed to open project: %w", err)
	}
	if warning != "" {
		w.logger.Warn("project descriptor", "path", descriptorPath, "warning", warning)
	}

	p.Videos = w.dedupeVideos(p.Videos)
	stores := make(map[string]*domain.AnnotationStore, len(p.Videos))
	for _, v := range p.Videos {
		stores[v.ID] = w.buildStore(p, v)
	}

	file, err := w.deps.Annotations.Load(p.AnnotationsFilePath())
	if err != nil {
		return fmt.Errorf("failed to load annotations: %w", err)
	}
	if file.Warning != "" {
		w.logger.Warn("annotations file", "path", p.AnnotationsFilePath(), "warning", file.Warning)
	}

	var (
		report  domain.LoadReport
		orphans []domain.Record
	)
	report.Merge(file.Report)
	for videoID, records := range domain.GroupByVideo(file.Records) {
		store, ok := stores[videoID]
		if !ok {
			orphans = append(orphans, records...)
			continue
		}
		report.Merge(domain.LoadRecords(records, store))
	}
	// keep the passthrough stable across saves
	slices.SortStableFunc(orphans, func(a, b domain.Record) int {
		return strings.Compare(a.VideoID, b.VideoID)
	})

	for _, sk := range report.Skipped {
		w.logger.Warn("skipped annotation record", "index", sk.Index, "video", sk.VideoID, "reason", sk.Reason)
	}
	if len(orphans) > 0 {
		w.logger.Info("kept records of unknown videos", "count", len(orphans))
	}

	if store, ok := stores[p.UI.LastVideoID]; ok {
		store.SetCursor(p.UI.LastFrameIndex)
	}

	w.project = p
	w.stores = stores
	w.orphans = orphans
	w.report = report
	w.projectDirty = false

	w.logger.Debug("project opened", "name", p.Name, "videos", len(p.Videos), "records", report.Accepted)
	return nil
}

func (w *Workspace) dedupeVideos(videos []domain.VideoItem) []domain.VideoItem {
	seen := make(map[string]bool, len(videos))
	out := videos[:0]
	for _, v := range videos {
		if v.ID == "" || seen[v.ID] {
			w.logger.Warn("dropping duplicate video entry", "id", v.ID, "name", v.Name)
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out
}

func (w *Workspace) buildStore(p *domain.Project, v domain.VideoItem) *domain.AnnotationStore {
	dir := p.VideoFramesPath(v)
	frames, err := w.deps.Frames.ListFrames(dir)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			w.logger.Warn("frames directory missing", "video", v.ID, "dir", dir)
		} else {
			w.logger.Warn("failed to list frames", "video", v.ID, "dir", dir, "error", err)
		}
		return domain.NewAnnotationStore(nil)
	}
	return domain.NewAnnotationStore(frames)
}

// IsOpen reports whether a project is loaded
func (w *Workspace) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.project != nil
}

// Project returns a snapshot of the project metadata
func (w *Workspace) Project() domain.Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.project == nil {
		return domain.Project{}
	}
	p := *w.project
	p.Videos = slices.Clone(p.Videos)
	p.Classes = slices.Clone(p.Classes)
	return p
}

// Videos returns the registered videos in project order
func (w *Workspace) Videos() []domain.VideoItem {
	return w.Project().Videos
}

// Update runs fn against a video's store under the workspace lock
func (w *Workspace) Update(videoID string, fn func(s *domain.AnnotationStore) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	store, err := w.store(videoID)
	if err != nil {
		return err
	}
	return fn(store)
}

// UpdateFrame runs fn with the store's cursor temporarily on sel.Frame.
// The cursor is restored afterwards, so a concurrent viewer keeps its position.
func (w *Workspace) UpdateFrame(sel Selection, fn func(s *domain.AnnotationStore) error) error {
	return w.Update(sel.VideoID, func(s *domain.AnnotationStore) error {
		if sel.Frame < 0 || sel.Frame >= s.FrameCount() {
			return fmt.Errorf("%w: frame %d out of range [0, %d)", ErrInvalidOperation, sel.Frame, s.FrameCount())
		}
		prev := s.Cursor()
		s.SetCursor(sel.Frame)
		defer s.SetCursor(prev)
		return fn(s)
	})
}

// View runs fn against a video's store under the workspace lock. fn must not mutate.
func (w *Workspace) View(videoID string, fn func(s *domain.AnnotationStore)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	store, err := w.store(videoID)
	if err != nil {
		return err
	}
	fn(store)
	return nil
}

func (w *Workspace) store(videoID string) (*domain.AnnotationStore, error) {
	if w.project == nil {
		return nil, fmt.Errorf("%w: no project open", ErrInvalidOperation)
	}
	store, ok := w.stores[videoID]
	if !ok {
		return nil, fmt.Errorf("video %q: %w", videoID, ErrNotFound)
	}
	return store, nil
}

// UpdateProject mutates the project metadata and marks it for saving
func (w *Workspace) UpdateProject(fn func(p *domain.Project) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.project == nil {
		return fmt.Errorf("%w: no project open", ErrInvalidOperation)
	}
	if err := fn(w.project); err != nil {
		return err
	}
	w.projectDirty = true
	return nil
}

// SetSession records the session as the project's resume state
func (w *Workspace) SetSession(s Session) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.project == nil {
		return fmt.Errorf("%w: no project open", ErrInvalidOperation)
	}
	if ui := s.UIState(); w.project.UI != ui {
		w.project.UI = ui
		w.projectDirty = true
	}
	return nil
}

// Dirty reports whether anything changed since the last save
func (w *Workspace) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.projectDirty {
		return true
	}
	for _, s := range w.stores {
		if s.Dirty() {
			return true
		}
	}
	return false
}

// LoadReport returns the diagnostics of the last Open
func (w *Workspace) LoadReport() domain.LoadReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return domain.LoadReport{Accepted: w.report.Accepted, Skipped: slices.Clone(w.report.Skipped)}
}

// OrphanCount returns the number of records kept for unknown videos
func (w *Workspace) OrphanCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.orphans)
}

// Records flattens one video's store
func (w *Workspace) Records(videoID string) ([]domain.Record, error) {
	var records []domain.Record
	err := w.View(videoID, func(s *domain.AnnotationStore) {
		records = domain.ToRecords(videoID, s)
	})
	return records, err
}

// Save writes the descriptor and the annotations file. Stores are marked
// clean only after both writes succeed.
func (w *Workspace) Save() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.project == nil {
		return fmt.Errorf("%w: no project open", ErrInvalidOperation)
	}

	if err := w.deps.Projects.Save(w.project); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	known := w.knownRecords()
	records := append(slices.Clone(known), w.orphans...)
	if err := w.deps.Annotations.Save(w.project.AnnotationsFilePath(), records); err != nil {
		return fmt.Errorf("failed to save annotations: %w", err)
	}

	for _, s := range w.stores {
		s.MarkClean()
	}
	w.projectDirty = false

	if w.deps.Index != nil {
		if _, err := w.deps.Index.Sync(known); err != nil {
			w.logger.Warn("annotation index sync failed", "error", err)
		}
	}

	w.logger.Debug("project saved", "records", len(records))
	return nil
}

func (w *Workspace) knownRecords() []domain.Record {
	var records []domain.Record
	for _, v := range w.project.Videos {
		if s, ok := w.stores[v.ID]; ok {
			records = append(records, domain.ToRecords(v.ID, s)...)
		}
	}
	return records
}

// KnownRecords flattens the stores of the registered videos. Records of
// unknown videos are left out; they are only written back by Save.
func (w *Workspace) KnownRecords() []domain.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.project == nil {
		return nil
	}
	return w.knownRecords()
}

// RegisterVideo adds an extracted video to the project and creates its store
func (w *Workspace) RegisterVideo(res ports.ImportResult, name string) (domain.VideoItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.project == nil {
		return domain.VideoItem{}, fmt.Errorf("%w: no project open", ErrInvalidOperation)
	}
	if name == "" {
		name = domain.SafeStem(res.SourcePath)
	}

	v := domain.VideoItem{
		ID:         w.newVideoID(),
		Name:       name,
		SourcePath: res.SourcePath,
		FramesDir:  w.project.Relative(res.FramesDir),
		FrameCount: res.FrameCount,
		FPS:        res.FPS,
	}
	w.project.Videos = append(w.project.Videos, v)
	w.stores[v.ID] = w.buildStore(w.project, v)
	w.projectDirty = true

	if n := w.stores[v.ID].FrameCount(); n != v.FrameCount {
		w.logger.Warn("frame count differs from extraction", "video", v.ID, "listed", n, "extracted", v.FrameCount)
	}
	w.logger.Info("video registered", "id", v.ID, "name", v.Name, "frames", v.FrameCount)
	return v, nil
}

func (w *Workspace) newVideoID() string {
	for {
		id := "vid_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		if _, taken := w.project.FindVideo(id); !taken {
			return id
		}
	}
}

// Close releases the index, if any
func (w *Workspace) Close() error {
	if w.deps.Index != nil {
		return w.deps.Index.Close()
	}
	return nil
}
