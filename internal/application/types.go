package application

import "tracewave/internal/domain"

// Re-export domain types for use by adapters
type (
	Project       = domain.Project
	VideoItem     = domain.VideoItem
	ClassLabel    = domain.ClassLabel
	Point         = domain.Point
	Box           = domain.Box
	Record        = domain.Record
	LoadReport    = domain.LoadReport
	SkippedRecord = domain.SkippedRecord
)

// Interaction modes
const (
	ModeBox   = domain.ModeBox
	ModePoint = domain.ModePoint
)
