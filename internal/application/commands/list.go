package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"tracewave/internal/application"
	"tracewave/internal/domain"
)

// ListVideosCommand lists the videos registered in the project
type ListVideosCommand struct {
	ws *application.Workspace
}

// NewListVideosCommand creates a new ListVideosCommand
func NewListVideosCommand(ws *application.Workspace) *ListVideosCommand {
	return &ListVideosCommand{ws: ws}
}

// Execute runs the list videos command
func (c *ListVideosCommand) Execute(ctx context.Context) ([]domain.VideoItem, error) {
	if !c.ws.IsOpen() {
		return nil, fmt.Errorf("%w: no project open", application.ErrInvalidOperation)
	}
	return c.ws.Videos(), nil
}

// FrameEntry describes one frame of a video
type FrameEntry struct {
	Index     int
	Path      string // absolute
	Name      string
	Annotated bool
	Objects   int
}

// ListFramesCommand lists the frames of a video in navigation order
type ListFramesCommand struct {
	ws            *application.Workspace
	VideoID       string
	OnlyAnnotated bool
}

// NewListFramesCommand creates a new ListFramesCommand
func NewListFramesCommand(ws *application.Workspace, videoID string, onlyAnnotated bool) *ListFramesCommand {
	return &ListFramesCommand{
		ws:            ws,
		VideoID:       videoID,
		OnlyAnnotated: onlyAnnotated,
	}
}

// Validate checks the video ID
func (c *ListFramesCommand) Validate() error {
	if c.VideoID == "" {
		return &application.ValidationError{Field: "videoId", Message: "video ID is required"}
	}
	return nil
}

// Execute runs the list frames command
func (c *ListFramesCommand) Execute(ctx context.Context) ([]FrameEntry, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var entries []FrameEntry
	err := c.ws.View(c.VideoID, func(s *domain.AnnotationStore) {
		for i, path := range s.Frames() {
			annotated := s.IsFrameAnnotated(i)
			if c.OnlyAnnotated && !annotated {
				continue
			}
			objects := 0
			for _, obj := range s.Objects(i) {
				if obj.HasContent() {
					objects++
				}
			}
			entries = append(entries, FrameEntry{
				Index:     i,
				Path:      path,
				Name:      filepath.Base(path),
				Annotated: annotated,
				Objects:   objects,
			})
		}
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ShowAnnotationsCommand returns the persisted form of a video's
// annotations, optionally restricted to one frame
type ShowAnnotationsCommand struct {
	ws      *application.Workspace
	VideoID string
	Frame   int // negative means every frame
}

// NewShowAnnotationsCommand creates a new ShowAnnotationsCommand
func NewShowAnnotationsCommand(ws *application.Workspace, videoID string, frame int) *ShowAnnotationsCommand {
	return &ShowAnnotationsCommand{
		ws:      ws,
		VideoID: videoID,
		Frame:   frame,
	}
}

// Validate checks the video ID
func (c *ShowAnnotationsCommand) Validate() error {
	if c.VideoID == "" {
		return &application.ValidationError{Field: "videoId", Message: "video ID is required"}
	}
	return nil
}

// Execute runs the show annotations command
func (c *ShowAnnotationsCommand) Execute(ctx context.Context) ([]domain.Record, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	records, err := c.ws.Records(c.VideoID)
	if err != nil {
		return nil, err
	}
	if c.Frame < 0 {
		return records, nil
	}

	var out []domain.Record
	for _, r := range records {
		if r.FrameIdx == c.Frame {
			out = append(out, r)
		}
	}
	return out, nil
}
