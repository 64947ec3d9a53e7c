package commands

import (
	"context"
	"fmt"

	"tracewave/internal/application"
	"tracewave/internal/domain"
)

// AnnotateResult contains the object state after an annotation command
type AnnotateResult struct {
	Selection application.Selection
	Object    domain.ObjectAnnotation
	Annotated bool // frame has content after the change
	Message   string
}

func validateSelection(sel application.Selection) error {
	if sel.VideoID == "" {
		return &application.ValidationError{Field: "videoId", Message: "video ID is required"}
	}
	if sel.Frame < 0 {
		return &application.ValidationError{Field: "frame", Message: fmt.Sprintf("must be non-negative, got %d", sel.Frame)}
	}
	return application.ValidateObjectID(sel.ObjID)
}

func annotate(ws *application.Workspace, sel application.Selection, msg string, fn func(s *domain.AnnotationStore) error) (*AnnotateResult, error) {
	res := &AnnotateResult{Selection: sel, Message: msg}
	err := ws.UpdateFrame(sel, func(s *domain.AnnotationStore) error {
		if err := fn(s); err != nil {
			return err
		}
		res.Object, _ = s.GetObject(sel.Frame, sel.ObjID)
		res.Annotated = s.IsFrameAnnotated(sel.Frame)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// PointCommand adds or removes a labelled point
type PointCommand struct {
	ws     *application.Workspace
	Sel    application.Selection
	X, Y   int
	Label  int
	Remove bool
}

// NewPointCommand creates a new PointCommand
func NewPointCommand(ws *application.Workspace, sel application.Selection, x, y, label int, remove bool) *PointCommand {
	return &PointCommand{ws: ws, Sel: sel, X: x, Y: y, Label: label, Remove: remove}
}

// Validate checks the selection, coordinates and label
func (c *PointCommand) Validate() error {
	if err := validateSelection(c.Sel); err != nil {
		return err
	}
	if c.X < 0 || c.Y < 0 {
		return &application.ValidationError{Field: "point", Message: fmt.Sprintf("coordinates must be non-negative, got (%d, %d)", c.X, c.Y)}
	}
	return application.ValidateLabel(c.Label)
}

// Execute applies the point change
func (c *PointCommand) Execute(ctx context.Context) (*AnnotateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.Remove {
		return annotate(c.ws, c.Sel, fmt.Sprintf("Removed point (%d, %d)", c.X, c.Y), func(s *domain.AnnotationStore) error {
			if !s.RemovePoint(c.Sel.ObjID, c.X, c.Y, c.Label) {
				return fmt.Errorf("point (%d, %d) label %d: %w", c.X, c.Y, c.Label, application.ErrNotFound)
			}
			return nil
		})
	}
	return annotate(c.ws, c.Sel, fmt.Sprintf("Added point (%d, %d)", c.X, c.Y), func(s *domain.AnnotationStore) error {
		s.AddPoint(c.Sel.ObjID, c.X, c.Y, c.Label)
		return nil
	})
}

// BoxCommand replaces an object's box
type BoxCommand struct {
	ws  *application.Workspace
	Sel application.Selection
	Box domain.Box
}

// NewBoxCommand creates a new BoxCommand
func NewBoxCommand(ws *application.Workspace, sel application.Selection, box domain.Box) *BoxCommand {
	return &BoxCommand{ws: ws, Sel: sel, Box: box}
}

// Validate checks the selection and box size
func (c *BoxCommand) Validate() error {
	if err := validateSelection(c.Sel); err != nil {
		return err
	}
	if c.Box.W < 0 || c.Box.H < 0 {
		return &application.ValidationError{Field: "box", Message: fmt.Sprintf("size must be non-negative, got %dx%d", c.Box.W, c.Box.H)}
	}
	return nil
}

// Execute sets the box
func (c *BoxCommand) Execute(ctx context.Context) (*AnnotateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	b := c.Box
	return annotate(c.ws, c.Sel, fmt.Sprintf("Set box %d,%d %dx%d", b.X, b.Y, b.W, b.H), func(s *domain.AnnotationStore) error {
		s.SetBox(c.Sel.ObjID, b.X, b.Y, b.W, b.H)
		return nil
	})
}

// ClassCommand assigns a palette class to an object; an empty class clears it
type ClassCommand struct {
	ws    *application.Workspace
	Sel   application.Selection
	Class string
}

// NewClassCommand creates a new ClassCommand
func NewClassCommand(ws *application.Workspace, sel application.Selection, class string) *ClassCommand {
	return &ClassCommand{ws: ws, Sel: sel, Class: class}
}

// Validate checks the selection
func (c *ClassCommand) Validate() error {
	return validateSelection(c.Sel)
}

// Execute sets the class
func (c *ClassCommand) Execute(ctx context.Context) (*AnnotateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Class != "" {
		if p := c.ws.Project(); !p.HasClass(c.Class) {
			return nil, &application.ValidationError{Field: "class", Message: fmt.Sprintf("%q is not in the project palette", c.Class)}
		}
	}

	msg := fmt.Sprintf("Set class %s", c.Class)
	if c.Class == "" {
		msg = "Cleared class"
	}
	return annotate(c.ws, c.Sel, msg, func(s *domain.AnnotationStore) error {
		s.SetClass(c.Sel.ObjID, c.Class)
		return nil
	})
}

// ClearObjectCommand resets an object to an empty annotation
type ClearObjectCommand struct {
	ws  *application.Workspace
	Sel application.Selection
}

// NewClearObjectCommand creates a new ClearObjectCommand
func NewClearObjectCommand(ws *application.Workspace, sel application.Selection) *ClearObjectCommand {
	return &ClearObjectCommand{ws: ws, Sel: sel}
}

// Validate checks the selection
func (c *ClearObjectCommand) Validate() error {
	return validateSelection(c.Sel)
}

// Execute clears the object
func (c *ClearObjectCommand) Execute(ctx context.Context) (*AnnotateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return annotate(c.ws, c.Sel, fmt.Sprintf("Cleared object %d", c.Sel.ObjID), func(s *domain.AnnotationStore) error {
		s.ClearObject(c.Sel.ObjID)
		return nil
	})
}
