package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Opener implements ports.EditorOpener
type Opener struct {
	preferred string
}

// NewOpener creates an editor opener. preferred, when set, wins over
// $EDITOR and $VISUAL; it may carry arguments ("code --wait").
func NewOpener(preferred string) *Opener {
	return &Opener{preferred: strings.TrimSpace(preferred)}
}

// OpenFile opens a file in the configured editor and waits for it
func (o *Opener) OpenFile(path string) error {
	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	return cmd.Run()
}

// Command returns an exec.Cmd for opening a file in the editor
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	fields := strings.Fields(o.findEditor())
	if len(fields) == 0 {
		return nil, fmt.Errorf("no editor found: set TRACEWAVE_EDITOR or $EDITOR")
	}

	args := append(fields[1:], path)
	cmd := exec.Command(fields[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd, nil
}

func (o *Opener) findEditor() string {
	if o.preferred != "" {
		return o.preferred
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if visual := os.Getenv("VISUAL"); visual != "" {
		return visual
	}

	for _, editor := range []string{"nvim", "vim", "vi", "nano"} {
		if path, err := exec.LookPath(editor); err == nil {
			return path
		}
	}
	return ""
}
