package commands

import (
	"context"
	"fmt"

	"tracewave/internal/application"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// Import defaults
const (
	DefaultImportQuality = 2
	DefaultImportThreads = 4
	DefaultImportWorkers = 1
)

// ImportFailure is a video that could not be extracted
type ImportFailure struct {
	Source string
	Err    error
}

// ImportVideosResult contains the result of an import batch
type ImportVideosResult struct {
	Videos   []domain.VideoItem
	Failures []ImportFailure
	Message  string
}

// ImportVideosCommand extracts frames from videos and registers them in the project
type ImportVideosCommand struct {
	ws        *application.Workspace
	extractor ports.FrameExtractor
	Sources   []string
	Quality   int
	Threads   int
	Workers   int

	// OnEvent, when set, observes every extraction event
	OnEvent func(ports.ImportEvent)
}

// NewImportVideosCommand creates a new ImportVideosCommand with default extraction settings
func NewImportVideosCommand(ws *application.Workspace, extractor ports.FrameExtractor, sources []string) *ImportVideosCommand {
	return &ImportVideosCommand{
		ws:        ws,
		extractor: extractor,
		Sources:   sources,
		Quality:   DefaultImportQuality,
		Threads:   DefaultImportThreads,
		Workers:   DefaultImportWorkers,
	}
}

// Validate checks the extraction settings
func (c *ImportVideosCommand) Validate() error {
	if len(c.Sources) == 0 {
		return &application.ValidationError{Field: "sources", Message: "at least one video is required"}
	}
	if c.Quality < 2 || c.Quality > 31 {
		return &application.ValidationError{Field: "quality", Message: fmt.Sprintf("must be between 2 and 31, got %d", c.Quality)}
	}
	if c.Threads < 1 {
		return &application.ValidationError{Field: "threads", Message: fmt.Sprintf("must be at least 1, got %d", c.Threads)}
	}
	if c.Workers < 1 {
		return &application.ValidationError{Field: "workers", Message: fmt.Sprintf("must be at least 1, got %d", c.Workers)}
	}
	return nil
}

// Execute runs the batch, registers the extracted videos and saves the project.
// Individual failures are reported in the result and do not stop the batch.
func (c *ImportVideosCommand) Execute(ctx context.Context) (*ImportVideosResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.extractor.Check(); err != nil {
		return nil, err
	}

	req := ports.ImportRequest{
		Sources:  c.Sources,
		DestRoot: c.ws.Project().FramesRootPath(),
		Quality:  c.Quality,
		Threads:  c.Threads,
		Workers:  c.Workers,
	}

	result := &ImportVideosResult{}
	var finished []ports.ImportResult
	for ev := range c.extractor.Import(ctx, req) {
		if c.OnEvent != nil {
			c.OnEvent(ev)
		}
		switch ev.Kind {
		case ports.ImportItemError:
			result.Failures = append(result.Failures, ImportFailure{Source: ev.Source, Err: ev.Err})
		case ports.ImportFinished:
			finished = ev.Results
		}
	}

	videos, err := RegisterImports(c.ws, finished)
	result.Videos = videos
	if err != nil {
		return result, err
	}

	result.Message = fmt.Sprintf("Imported %d of %d videos", len(result.Videos), len(c.Sources))
	if ctx.Err() != nil {
		result.Message += " (cancelled)"
	}
	return result, nil
}

// RegisterImports registers extraction results and saves the project
func RegisterImports(ws *application.Workspace, results []ports.ImportResult) ([]domain.VideoItem, error) {
	if len(results) == 0 {
		return nil, nil
	}

	videos := make([]domain.VideoItem, 0, len(results))
	for _, r := range results {
		v, err := ws.RegisterVideo(r, "")
		if err != nil {
			return videos, err
		}
		videos = append(videos, v)
	}

	if err := ws.Save(); err != nil {
		return videos, err
	}
	return videos, nil
}
