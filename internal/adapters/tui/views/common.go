package views

import "tracewave/internal/application"

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// Messages for view switching

type SwitchToVideosMsg struct{}

type SwitchToAnnotatorMsg struct {
	VideoID string
}

type SwitchToHelpMsg struct{}

type CloseHelpMsg struct{}

// OpenEditorMsg asks the app to open path in the external editor
type OpenEditorMsg struct {
	Path string
}

// QuitMsg asks the app to save and exit
type QuitMsg struct{}

// SessionChangedMsg reports a new session state. Mutated is set when
// annotations changed and an autosave should be scheduled.
type SessionChangedMsg struct {
	Session application.Session
	Mutated bool
}
