package commands

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"tracewave/internal/application"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// ClassMatch is a palette class scored against a query
type ClassMatch struct {
	domain.ClassLabel
	Score int
}

// FindClassResult contains the frames carrying the best matching class
type FindClassResult struct {
	Class   string
	Matches []ClassMatch // every palette class that matched, best first
	Frames  []ports.FrameRef
	Message string
}

// FindClassCommand finds annotated frames by class. The query is fuzzy
// matched against the project's palette.
type FindClassCommand struct {
	ws    *application.Workspace
	index ports.AnnotationIndex
	Query string
}

// NewFindClassCommand creates a new FindClassCommand. index may be nil, in
// which case the in-memory stores are scanned.
func NewFindClassCommand(ws *application.Workspace, index ports.AnnotationIndex, query string) *FindClassCommand {
	return &FindClassCommand{
		ws:    ws,
		index: index,
		Query: query,
	}
}

// Validate checks the query
func (c *FindClassCommand) Validate() error {
	if strings.TrimSpace(c.Query) == "" {
		return &application.ValidationError{Field: "class", Message: "class is required"}
	}
	return nil
}

// Execute runs the find class command
func (c *FindClassCommand) Execute(ctx context.Context) (*FindClassResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	matches := FuzzySort(c.ws.Project().Classes, c.Query)
	if len(matches) == 0 {
		return nil, fmt.Errorf("class %q: %w", c.Query, application.ErrNotFound)
	}
	class := matches[0].Name

	var (
		frames []ports.FrameRef
		err    error
	)
	if c.index != nil {
		if _, err = c.index.Sync(c.ws.KnownRecords()); err != nil {
			return nil, fmt.Errorf("failed to sync index: %w", err)
		}
		if frames, err = c.index.FramesWithClass(class); err != nil {
			return nil, err
		}
	} else {
		frames = framesWithClass(c.ws.KnownRecords(), class)
	}

	return &FindClassResult{
		Class:   class,
		Matches: matches,
		Frames:  frames,
		Message: fmt.Sprintf("%d frames with class %s", len(frames), class),
	}, nil
}

func framesWithClass(records []domain.Record, class string) []ports.FrameRef {
	var refs []ports.FrameRef
	for _, r := range records {
		if r.Class != class {
			continue
		}
		ref := ports.FrameRef{VideoID: r.VideoID, FrameIdx: r.FrameIdx}
		if !slices.Contains(refs, ref) {
			refs = append(refs, ref)
		}
	}
	slices.SortFunc(refs, func(a, b ports.FrameRef) int {
		return cmp.Or(cmp.Compare(a.VideoID, b.VideoID), cmp.Compare(a.FrameIdx, b.FrameIdx))
	})
	return refs
}

// FuzzyScore calculates a relevance score for how well target matches query
func FuzzyScore(target, query string) int {
	target = strings.ToLower(target)
	query = strings.ToLower(query)

	if len(query) == 0 {
		return 0
	}

	// Check for exact substring match first (highest priority)
	if strings.Contains(target, query) {
		score := 100
		// Bonus if it starts with query
		if strings.HasPrefix(target, query) {
			score += 50
		}
		return score
	}

	// Fuzzy match: check if chars appear in order
	score := 0
	queryIdx := 0
	prevMatchIdx := -1

	for i := 0; i < len(target) && queryIdx < len(query); i++ {
		if target[i] == query[queryIdx] {
			if prevMatchIdx == i-1 {
				score += 10 // consecutive chars
			}
			if i == 0 {
				score += 15 // start of string
			}
			if i > 0 && (target[i-1] == ' ' || target[i-1] == '_' || target[i-1] == '-') {
				score += 10 // after separator
			}
			score += 1
			prevMatchIdx = i
			queryIdx++
		}
	}

	if queryIdx == len(query) {
		return score
	}
	return 0
}

// FuzzySort scores palette classes against the query, best first. An exact
// name always wins.
func FuzzySort(classes []domain.ClassLabel, query string) []ClassMatch {
	scored := make([]ClassMatch, 0, len(classes))

	for _, c := range classes {
		score := FuzzyScore(c.Name, query)
		if strings.EqualFold(c.Name, query) {
			score += 1000
		}
		if score > 0 {
			scored = append(scored, ClassMatch{ClassLabel: c, Score: score})
		}
	}

	slices.SortStableFunc(scored, func(a, b ClassMatch) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return scored
}
