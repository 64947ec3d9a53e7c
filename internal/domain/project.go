package domain

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ProjectSchemaVersion is the version written to project descriptors
const ProjectSchemaVersion = 1

// Project layout defaults
const (
	DescriptorFileName     = "project.json"
	DefaultFramesRoot      = "frames"
	DefaultAnnotationsPath = "annotations.json"
)

// Interaction modes
const (
	ModeBox   = "box"
	ModePoint = "point"
)

// SegmentationConfig defaults
const (
	DefaultOracleConfig  = "sam2_hiera_t.yaml"
	DefaultOracleWeights = "sam2_configs/sam2_hiera_tiny.pt"
)

// ClassLabel is an entry of the project's class palette
type ClassLabel struct {
	Name  string
	Color string // hex, e.g. "#00FF00"
}

// DefaultClasses returns the built-in palette applied to new projects
func DefaultClasses() []ClassLabel {
	return []ClassLabel{
		{Name: "default", Color: "#00FF00"},
		{Name: "object", Color: "#FFD700"},
	}
}

// VideoItem is a video registered in a project
type VideoItem struct {
	ID         string
	Name       string
	SourcePath string
	FramesDir  string // project-relative, slash separated
	FrameCount int
	FPS        *float64
}

// UIState is the resume state of the last session
type UIState struct {
	LastVideoID       string
	LastFrameIndex    int
	Mode              string
	ShowOnlyAnnotated bool
	LastClass         string
	LastObjID         int
}

// DefaultUIState returns the state of a fresh project
func DefaultUIState() UIState {
	return UIState{Mode: ModeBox, LastObjID: DefaultObjectID}
}

// SegmentationConfig configures the segmentation oracle
type SegmentationConfig struct {
	ConfigName  string
	WeightsPath string
	AutoRun     bool
}

// DefaultSegmentationConfig returns the oracle configuration of a fresh project
func DefaultSegmentationConfig() SegmentationConfig {
	return SegmentationConfig{
		ConfigName:  DefaultOracleConfig,
		WeightsPath: DefaultOracleWeights,
		AutoRun:     true,
	}
}

// Project is the durable metadata of an annotation project
type Project struct {
	Name            string
	Root            string // absolute
	CreatedAt       time.Time
	LastOpened      time.Time
	FramesRoot      string // project-relative
	AnnotationsPath string // project-relative
	Videos          []VideoItem
	Classes         []ClassLabel
	UI              UIState
	Oracle          SegmentationConfig
}

// NewProject returns a project with default layout and classes
func NewProject(root, name string, now time.Time) *Project {
	p := &Project{
		Name:            name,
		Root:            root,
		CreatedAt:       now,
		LastOpened:      now,
		FramesRoot:      DefaultFramesRoot,
		AnnotationsPath: DefaultAnnotationsPath,
		UI:              DefaultUIState(),
		Oracle:          DefaultSegmentationConfig(),
	}
	p.EnsureDefaultClasses()
	return p
}

// EnsureDefaultClasses repairs an empty class palette
func (p *Project) EnsureDefaultClasses() {
	if len(p.Classes) == 0 {
		p.Classes = DefaultClasses()
	}
}

// DescriptorPath returns the absolute path of project.json
func (p Project) DescriptorPath() string {
	return filepath.Join(p.Root, DescriptorFileName)
}

// Resolve turns a project-relative path into an absolute one.
// Absolute paths are returned unchanged.
func (p Project) Resolve(rel string) string {
	native := filepath.FromSlash(rel)
	if filepath.IsAbs(native) {
		return filepath.Clean(native)
	}
	return filepath.Join(p.Root, native)
}

// Relative expresses an absolute path relative to the project root, slash separated.
// Paths outside the root are kept absolute.
func (p Project) Relative(abs string) string {
	rel, err := filepath.Rel(p.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// FramesRootPath returns the absolute frames root
func (p Project) FramesRootPath() string {
	return p.Resolve(p.FramesRoot)
}

// AnnotationsFilePath returns the absolute annotations file path
func (p Project) AnnotationsFilePath() string {
	return p.Resolve(p.AnnotationsPath)
}

// VideoFramesPath returns the absolute frames directory of a video
func (p Project) VideoFramesPath(v VideoItem) string {
	return p.Resolve(v.FramesDir)
}

// FindVideo looks up a video by id
func (p *Project) FindVideo(id string) (*VideoItem, bool) {
	for i := range p.Videos {
		if p.Videos[i].ID == id {
			return &p.Videos[i], true
		}
	}
	return nil, false
}

// HasClass reports whether the palette contains a class
func (p Project) HasClass(name string) bool {
	for _, c := range p.Classes {
		if c.Name == name {
			return true
		}
	}
	return false
}

var unsafeStemChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeStem derives a directory-safe name from a video path
func SafeStem(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	stem = unsafeStemChars.ReplaceAllString(stem, "_")
	if stem == "" || stem == "." {
		return "video"
	}
	return stem
}
