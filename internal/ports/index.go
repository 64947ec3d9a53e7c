package ports

import "tracewave/internal/domain"

// VideoStats summarizes the annotations of one video
type VideoStats struct {
	VideoID         string
	AnnotatedFrames int
	Objects         int
	Points          int
	Boxes           int
	Polygons        int
}

// ClassCount is the number of annotated objects carrying a class
type ClassCount struct {
	Class   string
	Objects int
}

// FrameRef points to an annotated frame
type FrameRef struct {
	VideoID  string
	FrameIdx int
}

// SyncStats reports an index synchronization
type SyncStats struct {
	Videos  int
	Objects int
}

// AnnotationIndex is a queryable cache of the saved annotations.
// The annotations file remains the source of truth.
type AnnotationIndex interface {
	// Lifecycle
	Open(projectRoot string) error
	Close() error

	// Sync replaces the indexed content with the given records
	Sync(records []domain.Record) (*SyncStats, error)

	// Queries
	VideoStats() ([]VideoStats, error)
	ClassCounts() ([]ClassCount, error)
	FramesWithClass(class string) ([]FrameRef, error)

	BeginTx() (IndexTx, error)
}

// IndexTx represents a transaction for atomic index updates
type IndexTx interface {
	DeleteVideo(videoID string) error
	InsertObject(rec domain.Record) error

	Commit() error
	Rollback() error
}
