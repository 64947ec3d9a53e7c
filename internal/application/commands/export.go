package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"tracewave/internal/application"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// ExportFailure is a video whose export could not be written
type ExportFailure struct {
	VideoID string
	Err     error
}

// ExportResult contains the files written by an export
type ExportResult struct {
	Written  []string
	Failures []ExportFailure
	Message  string
}

// ExportCommand writes the per-video prompt export next to each video's frames
type ExportCommand struct {
	ws       *application.Workspace
	exporter ports.PromptExporter
	VideoIDs []string // empty means every video
}

// NewExportCommand creates a new ExportCommand
func NewExportCommand(ws *application.Workspace, exporter ports.PromptExporter, videoIDs []string) *ExportCommand {
	return &ExportCommand{ws: ws, exporter: exporter, VideoIDs: videoIDs}
}

// Validate checks that the requested videos exist
func (c *ExportCommand) Validate() error {
	p := c.ws.Project()
	for _, id := range c.VideoIDs {
		if _, ok := p.FindVideo(id); !ok {
			return &application.ValidationError{Field: "videoId", Message: fmt.Sprintf("unknown video %q", id)}
		}
	}
	return nil
}

// Execute exports every selected video. One failing video does not stop the others.
func (c *ExportCommand) Execute(ctx context.Context) (*ExportResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p := c.ws.Project()
	videos := p.Videos
	if len(c.VideoIDs) > 0 {
		videos = videos[:0:0]
		for _, id := range c.VideoIDs {
			v, _ := p.FindVideo(id)
			videos = append(videos, *v)
		}
	}

	result := &ExportResult{}
	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		records, err := c.ws.Records(v.ID)
		if err == nil {
			var path string
			path, err = c.exporter.Export(p.VideoFramesPath(v), ExportBaseName(v), records)
			if err == nil {
				result.Written = append(result.Written, path)
				continue
			}
		}
		result.Failures = append(result.Failures, ExportFailure{VideoID: v.ID, Err: err})
	}

	result.Message = fmt.Sprintf("Exported %d of %d videos", len(result.Written), len(videos))
	return result, nil
}

// ExportBaseName picks the export file name: the source file's base name,
// then the display name, then the id
func ExportBaseName(v domain.VideoItem) string {
	if v.SourcePath != "" {
		base := filepath.Base(filepath.FromSlash(v.SourcePath))
		if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" && stem != "." {
			return stem
		}
	}
	if v.Name != "" {
		return v.Name
	}
	return v.ID
}
