package filesystem

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tracewave/internal/application"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// ProjectStore implements ports.ProjectRepository with a JSON descriptor
type ProjectStore struct {
	now func() time.Time
}

var _ ports.ProjectRepository = (*ProjectStore)(nil)

// NewProjectStore creates a new descriptor store
func NewProjectStore() *ProjectStore {
	return &ProjectStore{now: func() time.Time { return time.Now().UTC() }}
}

type projectJSON struct {
	SchemaVersion   int         `json:"schemaVersion"`
	ProjectName     string      `json:"projectName"`
	CreatedAt       string      `json:"createdAt"`
	LastOpened      string      `json:"lastOpened"`
	FramesRoot      string      `json:"framesRoot"`
	AnnotationsPath string      `json:"annotationsPath"`
	Videos          []videoJSON `json:"videos"`
	Classes         []classJSON `json:"classes"`
	UIState         uiStateJSON `json:"uiState"`
	Oracle          oracleJSON  `json:"oracle"`
}

type videoJSON struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	SourcePath string   `json:"sourcePath"`
	FramesDir  string   `json:"framesDir"`
	FrameCount int      `json:"frameCount"`
	FPS        *float64 `json:"fps,omitempty"`
}

type classJSON struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type uiStateJSON struct {
	LastVideoID       string `json:"lastVideoId"`
	LastFrameIndex    int    `json:"lastFrameIndex"`
	Mode              string `json:"mode"`
	ShowOnlyAnnotated bool   `json:"showOnlyAnnotated"`
	LastClass         string `json:"lastClass"`
	LastObjID         int    `json:"lastObjId"`
}

type oracleJSON struct {
	ConfigName  string `json:"configName"`
	WeightsPath string `json:"weightsPath"`
	AutoRun     bool   `json:"autoRun"`
}

// Create initializes a project directory with a descriptor and an empty annotations file
func (s *ProjectStore) Create(root, name string, force bool) (*domain.Project, error) {
	info, err := os.Stat(root)
	switch {
	case err == nil && !info.IsDir():
		return nil, &application.ConflictError{Path: root, Reason: "not a directory"}
	case err == nil && !force:
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", root, err)
		}
		if len(entries) > 0 {
			return nil, &application.ConflictError{Path: root, Reason: "directory is not empty"}
		}
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to inspect %s: %w", root, err)
	}

	p := domain.NewProject(root, name, s.now())
	if err := os.MkdirAll(p.FramesRootPath(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}
	if err := s.write(p); err != nil {
		return nil, err
	}

	annotations := p.AnnotationsFilePath()
	if _, err := os.Stat(annotations); errors.Is(err, fs.ErrNotExist) {
		if err := NewAnnotationStore().Save(annotations, nil); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Load reads a descriptor. Malformed fields fall back to their defaults and
// are reported in the warning.
func (s *ProjectStore) Load(descriptorPath string) (*domain.Project, string, error) {
	abs, err := filepath.Abs(descriptorPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve %s: %w", descriptorPath, err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		abs = filepath.Join(abs, domain.DescriptorFileName)
	}

	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("project descriptor %s: %w", abs, application.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read project descriptor: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, "", fmt.Errorf("project descriptor %s: %w: %v", abs, application.ErrMalformed, err)
	}

	now := s.now()
	p := domain.NewProject(filepath.Dir(abs), "", now)
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	version := 0
	if !lenient(raw, "schemaVersion", &version) || version != domain.ProjectSchemaVersion {
		warn("project schema version %d, expected %d", version, domain.ProjectSchemaVersion)
	}

	if !lenient(raw, "projectName", &p.Name) || p.Name == "" {
		p.Name = filepath.Base(p.Root)
	}

	var ts string
	if lenient(raw, "createdAt", &ts) {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			p.CreatedAt = t.UTC()
		} else {
			warn("invalid createdAt %q", ts)
		}
	}
	p.LastOpened = now

	var rel string
	if lenient(raw, "framesRoot", &rel) && rel != "" {
		p.FramesRoot = rel
	}
	rel = ""
	if lenient(raw, "annotationsPath", &rel) && rel != "" {
		p.AnnotationsPath = rel
	}

	var videos []json.RawMessage
	if lenient(raw, "videos", &videos) {
		for i, v := range videos {
			var vj videoJSON
			if err := json.Unmarshal(v, &vj); err != nil || vj.ID == "" {
				warn("skipping invalid video entry %d", i)
				continue
			}
			p.Videos = append(p.Videos, domain.VideoItem(vj))
		}
	}

	var classes []classJSON
	if lenient(raw, "classes", &classes) {
		p.Classes = nil
		for _, c := range classes {
			if c.Name == "" {
				continue
			}
			p.Classes = append(p.Classes, domain.ClassLabel(c))
		}
	}
	p.EnsureDefaultClasses()

	ui := uiStateJSON(p.UI)
	if _, ok := raw["uiState"]; ok && !lenient(raw, "uiState", &ui) {
		warn("invalid uiState, using defaults")
	}
	p.UI = domain.UIState(ui)
	if application.ValidateMode(p.UI.Mode) != nil {
		p.UI.Mode = domain.ModeBox
	}
	if p.UI.LastObjID <= 0 {
		p.UI.LastObjID = domain.DefaultObjectID
	}

	oracle := oracleJSON(p.Oracle)
	if _, ok := raw["oracle"]; ok && !lenient(raw, "oracle", &oracle) {
		warn("invalid oracle settings, using defaults")
	}
	p.Oracle = domain.SegmentationConfig(oracle)
	if p.Oracle.ConfigName == "" {
		p.Oracle.ConfigName = domain.DefaultOracleConfig
	}

	return p, strings.Join(warnings, "; "), nil
}

// lenient decodes raw[key] into dst and reports success. dst keeps its
// value when the key is absent or malformed.
func lenient[T any](raw map[string]json.RawMessage, key string, dst *T) bool {
	v, ok := raw[key]
	if !ok || isNull(v) {
		return false
	}
	var tmp T
	if err := json.Unmarshal(v, &tmp); err != nil {
		return false
	}
	*dst = tmp
	return true
}

// Save refreshes last-opened and atomically rewrites the descriptor
func (s *ProjectStore) Save(p *domain.Project) error {
	p.LastOpened = s.now()
	return s.write(p)
}

func (s *ProjectStore) write(p *domain.Project) error {
	pj := projectJSON{
		SchemaVersion:   domain.ProjectSchemaVersion,
		ProjectName:     p.Name,
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339),
		LastOpened:      p.LastOpened.UTC().Format(time.RFC3339),
		FramesRoot:      p.FramesRoot,
		AnnotationsPath: p.AnnotationsPath,
		Videos:          make([]videoJSON, 0, len(p.Videos)),
		Classes:         make([]classJSON, 0, len(p.Classes)),
		UIState:         uiStateJSON(p.UI),
		Oracle:          oracleJSON(p.Oracle),
	}
	for _, v := range p.Videos {
		pj.Videos = append(pj.Videos, videoJSON(v))
	}
	for _, c := range p.Classes {
		pj.Classes = append(pj.Classes, classJSON(c))
	}

	data, err := json.MarshalIndent(pj, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	if err := writeFileAtomic(p.DescriptorPath(), append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write project descriptor: %w", err)
	}
	return nil
}
