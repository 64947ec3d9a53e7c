package ports

import "tracewave/internal/domain"

// ProjectRepository persists project descriptors
type ProjectRepository interface {
	// Create initializes a project at root. A non-empty root is a conflict
	// unless force is set.
	Create(root, name string, force bool) (*domain.Project, error)

	// Load reads a descriptor. The returned warning is non-empty for
	// recoverable problems such as a schema version mismatch.
	Load(descriptorPath string) (*domain.Project, string, error)

	// Save refreshes last-opened and rewrites the descriptor
	Save(p *domain.Project) error
}
