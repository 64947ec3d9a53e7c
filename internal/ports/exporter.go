package ports

import "tracewave/internal/domain"

// PromptExporter writes the per-video prompt export
type PromptExporter interface {
	// Export writes records for one video into dir and returns the file written
	Export(dir, baseName string, records []domain.Record) (string, error)
}
