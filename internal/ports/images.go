package ports

// RGBImage is a decoded frame as packed 8-bit RGB
type RGBImage struct {
	Width  int
	Height int
	Pix    []byte
}

// ImageLoader decodes frame images for the segmentation oracle
type ImageLoader interface {
	// LoadRGB decodes the image at path. Formats without a decoder yield an
	// error wrapping application.ErrUnavailable.
	LoadRGB(path string) (*RGBImage, error)
}
