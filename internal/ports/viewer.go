package ports

// ImageViewer opens a frame in the system image viewer
type ImageViewer interface {
	OpenFile(filePath string) error
}
