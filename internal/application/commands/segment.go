package commands

import (
	"context"
	"fmt"

	"tracewave/internal/application"
	"tracewave/internal/domain"
)

// SegmentResult contains the outcome of a segmentation run
type SegmentResult struct {
	Selection application.Selection
	Outcome   application.Outcome
	Vertices  int
	Message   string
}

// SegmentCommand runs the prompt workflow for one selection
type SegmentCommand struct {
	ws       *application.Workspace
	workflow *application.Workflow
	Sel      application.Selection
}

// NewSegmentCommand creates a new SegmentCommand
func NewSegmentCommand(ws *application.Workspace, wf *application.Workflow, sel application.Selection) *SegmentCommand {
	return &SegmentCommand{ws: ws, workflow: wf, Sel: sel}
}

// Validate checks the selection
func (c *SegmentCommand) Validate() error {
	return validateSelection(c.Sel)
}

// Execute segments and commits on success. A non-committed outcome is not an error.
func (c *SegmentCommand) Execute(ctx context.Context) (*SegmentResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	res, err := c.workflow.Run(ctx, c.ws, c.Sel)
	if err != nil {
		return nil, err
	}

	out := &SegmentResult{Selection: c.Sel, Outcome: res.Outcome, Vertices: len(res.Polygon)}
	if res.Outcome == application.OutcomeCommitted {
		out.Message = fmt.Sprintf("Polygon with %d vertices on frame %d, object %d", len(res.Polygon), c.Sel.Frame, c.Sel.ObjID)
	} else {
		out.Message = fmt.Sprintf("Not segmented: %s", res.Outcome)
		if res.Reason != "" {
			out.Message += " (" + res.Reason + ")"
		}
	}
	return out, nil
}

// ClearMaskCommand removes the committed polygon of a selection
type ClearMaskCommand struct {
	ws       *application.Workspace
	workflow *application.Workflow
	Sel      application.Selection
}

// NewClearMaskCommand creates a new ClearMaskCommand
func NewClearMaskCommand(ws *application.Workspace, wf *application.Workflow, sel application.Selection) *ClearMaskCommand {
	return &ClearMaskCommand{ws: ws, workflow: wf, Sel: sel}
}

// Validate checks the selection
func (c *ClearMaskCommand) Validate() error {
	return validateSelection(c.Sel)
}

// Execute clears the polygon
func (c *ClearMaskCommand) Execute(ctx context.Context) (*AnnotateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.workflow.ClearMask(c.ws, c.Sel); err != nil {
		return nil, err
	}

	res := &AnnotateResult{Selection: c.Sel, Message: fmt.Sprintf("Cleared mask of object %d", c.Sel.ObjID)}
	err := c.ws.View(c.Sel.VideoID, func(s *domain.AnnotationStore) {
		res.Object, _ = s.GetObject(c.Sel.Frame, c.Sel.ObjID)
		res.Annotated = s.IsFrameAnnotated(c.Sel.Frame)
	})
	return res, err
}
