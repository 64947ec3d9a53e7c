package ports

// FrameLister enumerates the frame images of a video
type FrameLister interface {
	// ListFrames returns the image files directly inside dir in frame order.
	// A missing directory yields an error wrapping application.ErrNotFound.
	ListFrames(dir string) ([]string, error)
}
