package commands

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"tracewave/internal/application"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// StatsResult summarizes a project's annotations
type StatsResult struct {
	Videos  []VideoSummary
	Classes []ports.ClassCount
	Skipped int // records skipped when the project was opened
	Orphans int // records kept for unknown videos
	Message string
}

// VideoSummary combines a video's metadata with its annotation counts
type VideoSummary struct {
	Video  domain.VideoItem
	Frames int
	ports.VideoStats
}

// StatsCommand reports annotation counts per video and per class
type StatsCommand struct {
	ws    *application.Workspace
	index ports.AnnotationIndex
}

// NewStatsCommand creates a new StatsCommand. index may be nil, in which case
// counts are computed from the in-memory stores.
func NewStatsCommand(ws *application.Workspace, index ports.AnnotationIndex) *StatsCommand {
	return &StatsCommand{ws: ws, index: index}
}

// Validate checks that a project is open
func (c *StatsCommand) Validate() error {
	if !c.ws.IsOpen() {
		return fmt.Errorf("%w: no project open", application.ErrInvalidOperation)
	}
	return nil
}

// Execute computes the statistics
func (c *StatsCommand) Execute(ctx context.Context) (*StatsResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var (
		perVideo []ports.VideoStats
		classes  []ports.ClassCount
		err      error
	)
	if c.index != nil {
		if _, err = c.index.Sync(c.ws.KnownRecords()); err != nil {
			return nil, fmt.Errorf("failed to sync index: %w", err)
		}
		if perVideo, err = c.index.VideoStats(); err != nil {
			return nil, err
		}
		if classes, err = c.index.ClassCounts(); err != nil {
			return nil, err
		}
	} else {
		perVideo, classes = Summarize(c.ws.KnownRecords())
	}

	byID := make(map[string]ports.VideoStats, len(perVideo))
	for _, s := range perVideo {
		byID[s.VideoID] = s
	}

	result := &StatsResult{
		Classes: classes,
		Skipped: len(c.ws.LoadReport().Skipped),
		Orphans: c.ws.OrphanCount(),
	}
	annotated := 0
	for _, v := range c.ws.Videos() {
		s := byID[v.ID]
		s.VideoID = v.ID
		frames := 0
		_ = c.ws.View(v.ID, func(st *domain.AnnotationStore) { frames = st.FrameCount() })
		result.Videos = append(result.Videos, VideoSummary{Video: v, Frames: frames, VideoStats: s})
		annotated += s.AnnotatedFrames
	}

	result.Message = fmt.Sprintf("%d videos, %d annotated frames", len(result.Videos), annotated)
	return result, nil
}

// Summarize counts records per video and per class
func Summarize(records []domain.Record) ([]ports.VideoStats, []ports.ClassCount) {
	stats := make(map[string]*ports.VideoStats)
	frames := make(map[ports.FrameRef]bool)
	classes := make(map[string]int)

	for _, r := range records {
		s, ok := stats[r.VideoID]
		if !ok {
			s = &ports.VideoStats{VideoID: r.VideoID}
			stats[r.VideoID] = s
		}
		ref := ports.FrameRef{VideoID: r.VideoID, FrameIdx: r.FrameIdx}
		if !frames[ref] {
			frames[ref] = true
			s.AnnotatedFrames++
		}
		s.Objects++
		s.Points += len(r.Points)
		if r.Box != nil {
			s.Boxes++
		}
		if r.Polygon != nil {
			s.Polygons++
		}
		if r.Class != "" {
			classes[r.Class]++
		}
	}

	perVideo := make([]ports.VideoStats, 0, len(stats))
	for _, s := range stats {
		perVideo = append(perVideo, *s)
	}
	slices.SortFunc(perVideo, func(a, b ports.VideoStats) int { return cmp.Compare(a.VideoID, b.VideoID) })

	counts := make([]ports.ClassCount, 0, len(classes))
	for name, n := range classes {
		counts = append(counts, ports.ClassCount{Class: name, Objects: n})
	}
	slices.SortFunc(counts, func(a, b ports.ClassCount) int { return cmp.Compare(a.Class, b.Class) })
	return perVideo, counts
}
