package application

import "tracewave/internal/domain"

// Selection addresses one object on one frame of one video
type Selection struct {
	VideoID string
	Frame   int
	ObjID   int
}

// Session is the operator's current interaction state
type Session struct {
	Selection
	Mode              string
	Class             string
	ShowOnlyAnnotated bool
}

// SessionFromUI restores a session from the persisted UI state
func SessionFromUI(ui domain.UIState) Session {
	s := Session{
		Selection: Selection{
			VideoID: ui.LastVideoID,
			Frame:   max(0, ui.LastFrameIndex),
			ObjID:   ui.LastObjID,
		},
		Mode:              ui.Mode,
		Class:             ui.LastClass,
		ShowOnlyAnnotated: ui.ShowOnlyAnnotated,
	}
	if s.ObjID <= 0 {
		s.ObjID = domain.DefaultObjectID
	}
	if ValidateMode(s.Mode) != nil {
		s.Mode = domain.ModeBox
	}
	return s
}

// UIState converts the session into its persisted form
func (s Session) UIState() domain.UIState {
	return domain.UIState{
		LastVideoID:       s.VideoID,
		LastFrameIndex:    s.Frame,
		Mode:              s.Mode,
		ShowOnlyAnnotated: s.ShowOnlyAnnotated,
		LastClass:         s.Class,
		LastObjID:         s.ObjID,
	}
}
