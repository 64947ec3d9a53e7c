package ports

import (
	"context"

	"tracewave/internal/domain"
)

// OracleState describes whether segmentation can be attempted
type OracleState int

const (
	OracleReady OracleState = iota
	OracleUnavailable
)

// OracleStatus is the availability of a segmentation oracle.
// Reason explains an unavailable status (missing command, missing weights, ...).
type OracleStatus struct {
	State  OracleState
	Reason string
}

// Ready reports whether the oracle can be asked for a mask
func (s OracleStatus) Ready() bool {
	return s.State == OracleReady
}

// SegmentRequest is a single-image, single-mask segmentation request
type SegmentRequest struct {
	Width  int
	Height int
	RGB    []byte // row-major, 3 bytes per pixel
	Points []domain.Point
	Labels []int // parallel to Points
	Box    *domain.Box
}

// SegmentationOracle predicts an object mask from prompts
type SegmentationOracle interface {
	// Status reports availability without running inference
	Status() OracleStatus

	// Segment returns exactly one mask, or nil when the oracle produced none.
	// An oracle that turns out to be unavailable returns an error wrapping
	// application.ErrUnavailable.
	Segment(ctx context.Context, req SegmentRequest) (*domain.Mask, error)
}
