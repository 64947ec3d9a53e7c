package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"tracewave/internal/application"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// FrameLister implements ports.FrameLister over a directory of images
type FrameLister struct{}

var _ ports.FrameLister = (*FrameLister)(nil)

// NewFrameLister creates a new frame lister
func NewFrameLister() *FrameLister {
	return &FrameLister{}
}

// ListFrames returns the image files directly inside dir, in frame order
func (l *FrameLister) ListFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("frames directory %s: %w", dir, application.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read frames directory: %w", err)
	}

	var frames []string
	for _, e := range entries {
		if e.IsDir() || !domain.IsImageFile(e.Name()) {
			continue
		}
		frames = append(frames, filepath.Join(dir, e.Name()))
	}
	domain.SortFrames(frames)
	return frames, nil
}

// CountFrames returns the number of frame images in dir
func CountFrames(dir string) (int, error) {
	frames, err := NewFrameLister().ListFrames(dir)
	return len(frames), err
}
