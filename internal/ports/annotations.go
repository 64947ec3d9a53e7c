package ports

import "tracewave/internal/domain"

// AnnotationFile is the decoded content of an annotations file
type AnnotationFile struct {
	SchemaVersion int
	Records       []domain.Record
	Report        domain.LoadReport // entries that could not be decoded or validated
	Warning       string
}

// AnnotationRepository reads and writes the project annotations file
type AnnotationRepository interface {
	// Load decodes every record that passes validation. A missing file is an
	// empty result, not an error.
	Load(path string) (*AnnotationFile, error)

	// Save atomically replaces the file with the given records
	Save(path string, records []domain.Record) error
}
