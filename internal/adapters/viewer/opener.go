package viewer

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"tracewave/internal/domain"
)

// Opener implements ports.ImageViewer using the platform's default handler
type Opener struct {
	goos string
}

// NewOpener creates a viewer for the running platform
func NewOpener() *Opener {
	return &Opener{goos: runtime.GOOS}
}

// OpenFile opens a frame image in the system viewer
func (o *Opener) OpenFile(filePath string) error {
	cmd, err := o.Command(filePath)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command builds the launcher command for a frame image
func (o *Opener) Command(filePath string) (*exec.Cmd, error) {
	uri, err := BuildURI(filePath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("frame not readable: %w", err)
	}

	switch o.goos {
	case "darwin":
		return exec.Command("open", uri), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", uri), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", uri), nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", o.goos)
	}
}

// BuildURI constructs the file:// URI for an absolute frame path
func BuildURI(filePath string) (string, error) {
	if !filepath.IsAbs(filePath) {
		return "", fmt.Errorf("frame path must be absolute: %s", filePath)
	}
	if !domain.IsImageFile(filePath) {
		return "", fmt.Errorf("not a frame image: %s", filePath)
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filePath)}
	return u.String(), nil
}
