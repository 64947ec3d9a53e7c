package filesystem

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"tracewave/internal/application"
	"tracewave/internal/ports"
)

// ImageLoader implements ports.ImageLoader with the registered image decoders
type ImageLoader struct{}

var _ ports.ImageLoader = (*ImageLoader)(nil)

// NewImageLoader creates a new image loader
func NewImageLoader() *ImageLoader {
	return &ImageLoader{}
}

// LoadRGB decodes a frame into packed RGB
func (l *ImageLoader) LoadRGB(path string) (*ports.RGBImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("no decoder for %s: %w", path, application.ErrUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return ToRGB(img), nil
}

// ToRGB packs an image into 8-bit RGB, dropping alpha
func ToRGB(img image.Image) *ports.RGBImage {
	b := img.Bounds()
	out := &ports.RGBImage{Width: b.Dx(), Height: b.Dy(), Pix: make([]byte, b.Dx()*b.Dy()*3)}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out.Pix[i] = byte(r >> 8)
			out.Pix[i+1] = byte(g >> 8)
			out.Pix[i+2] = byte(bl >> 8)
			i += 3
		}
	}
	return out
}
