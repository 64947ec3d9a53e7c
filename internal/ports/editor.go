package ports

import "os/exec"

// EditorOpener opens files such as the project descriptor in a text editor
type EditorOpener interface {
	// OpenFile runs the configured editor on path and waits for it to exit
	OpenFile(path string) error

	// Command returns the editor command for path, for use with tea.ExecProcess
	Command(path string) (*exec.Cmd, error)
}
