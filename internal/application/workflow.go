package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// Outcome classifies a segmentation attempt
type Outcome int

const (
	OutcomeCommitted Outcome = iota
	OutcomeNoPrompt
	OutcomeUnavailable
	OutcomeImageUnavailable
	OutcomeNoPolygon
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeNoPrompt:
		return "no prompt"
	case OutcomeUnavailable:
		return "segmentation unavailable"
	case OutcomeImageUnavailable:
		return "image unavailable"
	case OutcomeNoPolygon:
		return "no polygon"
	default:
		return "unknown"
	}
}

// Prompts is the transient input of one selection, separate from the
// committed annotation
type Prompts struct {
	Points []domain.Point
	Labels []int
	Box    *domain.Box
}

// Empty reports whether there is nothing to segment from
func (p Prompts) Empty() bool {
	return len(p.Points) == 0 && (p.Box == nil || !p.Box.Valid())
}

// Foreground returns the points labelled foreground
func (p Prompts) Foreground() []domain.Point {
	return p.withLabel(domain.LabelForeground)
}

// Background returns the points labelled background
func (p Prompts) Background() []domain.Point {
	return p.withLabel(domain.LabelBackground)
}

func (p Prompts) withLabel(label int) []domain.Point {
	var out []domain.Point
	for i, pt := range p.Points {
		if p.Labels[i] == label {
			out = append(out, pt)
		}
	}
	return out
}

func (p Prompts) clone() Prompts {
	c := Prompts{Points: slices.Clone(p.Points), Labels: slices.Clone(p.Labels)}
	if p.Box != nil {
		b := *p.Box
		c.Box = &b
	}
	return c
}

// SegmentResult is the outcome of a segmentation attempt
type SegmentResult struct {
	Outcome Outcome
	Polygon []domain.Point
	Reason  string
}

// Workflow turns operator prompts into committed polygons through a
// segmentation oracle
type Workflow struct {
	mu      sync.Mutex
	oracle  ports.SegmentationOracle
	images  ports.ImageLoader
	logger  *slog.Logger
	prompts map[Selection]*Prompts
	autoRun bool
}

// NewWorkflow creates a workflow. Auto-run starts disabled.
func NewWorkflow(oracle ports.SegmentationOracle, images ports.ImageLoader, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		oracle:  oracle,
		images:  images,
		logger:  logger,
		prompts: make(map[Selection]*Prompts),
	}
}

// AutoRun reports whether segmentation should rerun after every prompt change
func (w *Workflow) AutoRun() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.autoRun
}

// SetAutoRun toggles auto-run
func (w *Workflow) SetAutoRun(on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.autoRun = on
}

// Status reports the oracle availability
func (w *Workflow) Status() ports.OracleStatus {
	if w.oracle == nil {
		return ports.OracleStatus{State: ports.OracleUnavailable, Reason: "no segmentation oracle configured"}
	}
	return w.oracle.Status()
}

// AddPrompt appends a transient point prompt
func (w *Workflow) AddPrompt(sel Selection, x, y, label int) error {
	if err := ValidateLabel(label); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	p := w.entry(sel)
	p.Points = append(p.Points, domain.Point{X: x, Y: y})
	p.Labels = append(p.Labels, label)
	return nil
}

// SetPromptBox replaces the in-progress box prompt; nil clears it
func (w *Workflow) SetPromptBox(sel Selection, box *domain.Box) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := w.entry(sel)
	if box == nil {
		p.Box = nil
		return
	}
	b := *box
	p.Box = &b
}

// ClearPrompts drops every transient prompt of the selection
func (w *Workflow) ClearPrompts(sel Selection) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.prompts, sel)
}

// Prompts returns a copy of the selection's transient prompts
func (w *Workflow) Prompts(sel Selection) Prompts {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.prompts[sel]
	if !ok {
		return Prompts{}
	}
	return p.clone()
}

func (w *Workflow) entry(sel Selection) *Prompts {
	p, ok := w.prompts[sel]
	if !ok {
		p = &Prompts{}
		w.prompts[sel] = p
	}
	return p
}

// Segment asks the oracle for one mask over the image and extracts the
// outline of its largest region. It never mutates annotations.
func (w *Workflow) Segment(ctx context.Context, imagePath string, points []domain.Point, labels []int, box *domain.Box) (SegmentResult, error) {
	prompts := Prompts{Points: points, Labels: labels, Box: box}
	if prompts.Empty() {
		return SegmentResult{Outcome: OutcomeNoPrompt, Reason: "add a point or draw a box first"}, nil
	}
	if len(points) != len(labels) {
		return SegmentResult{}, &ValidationError{Field: "labels", Message: fmt.Sprintf("%d points but %d labels", len(points), len(labels))}
	}

	status := w.Status()
	if !status.Ready() {
		return SegmentResult{Outcome: OutcomeUnavailable, Reason: status.Reason}, nil
	}

	img, err := w.images.LoadRGB(imagePath)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return SegmentResult{Outcome: OutcomeImageUnavailable, Reason: err.Error()}, nil
		}
		return SegmentResult{}, fmt.Errorf("failed to load frame: %w", err)
	}

	req := ports.SegmentRequest{
		Width:  img.Width,
		Height: img.Height,
		RGB:    img.Pix,
		Points: points,
		Labels: labels,
	}
	if box != nil && box.Valid() {
		b := *box
		req.Box = &b
	}

	mask, err := w.oracle.Segment(ctx, req)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return SegmentResult{Outcome: OutcomeUnavailable, Reason: err.Error()}, nil
		}
		return SegmentResult{}, fmt.Errorf("segmentation failed: %w", err)
	}
	if mask == nil {
		return SegmentResult{Outcome: OutcomeNoPolygon, Reason: "empty mask"}, nil
	}
	if mask.Width != img.Width || mask.Height != img.Height {
		return SegmentResult{}, fmt.Errorf("%w: mask %dx%d does not match frame %dx%d",
			ErrMalformed, mask.Width, mask.Height, img.Width, img.Height)
	}

	polygon := domain.MaskToPolygon(mask)
	if len(polygon) < domain.MinPolygonVertices {
		return SegmentResult{Outcome: OutcomeNoPolygon, Reason: "mask has no usable contour"}, nil
	}
	return SegmentResult{Outcome: OutcomeCommitted, Polygon: polygon}, nil
}

// Run segments the selection and commits the polygon on success. Transient
// prompts are used when present, otherwise the committed points and box.
func (w *Workflow) Run(ctx context.Context, ws *Workspace, sel Selection) (SegmentResult, error) {
	if err := ValidateObjectID(sel.ObjID); err != nil {
		return SegmentResult{}, err
	}

	var (
		imagePath string
		prompts   = w.Prompts(sel)
	)
	err := ws.View(sel.VideoID, func(s *domain.AnnotationStore) {
		path, ok := s.FramePath(sel.Frame)
		if !ok {
			return
		}
		imagePath = path
		if !prompts.Empty() {
			return
		}
		if obj, ok := s.GetObject(sel.Frame, sel.ObjID); ok {
			prompts = Prompts{Points: obj.Points, Labels: obj.Labels}
			if obj.HasBox() {
				prompts.Box = obj.Box
			}
		}
	})
	if err != nil {
		return SegmentResult{}, err
	}
	if imagePath == "" {
		return SegmentResult{}, fmt.Errorf("%w: frame %d out of range", ErrInvalidOperation, sel.Frame)
	}

	res, err := w.Segment(ctx, imagePath, prompts.Points, prompts.Labels, prompts.Box)
	if err != nil || res.Outcome != OutcomeCommitted {
		if err == nil {
			w.logger.Debug("segmentation not committed", "video", sel.VideoID, "frame", sel.Frame, "obj", sel.ObjID, "outcome", res.Outcome.String())
		}
		return res, err
	}

	if err := Commit(ws, sel, res); err != nil {
		return SegmentResult{}, err
	}
	w.logger.Debug("polygon committed", "video", sel.VideoID, "frame", sel.Frame, "obj", sel.ObjID, "vertices", len(res.Polygon))
	return res, nil
}

// Commit stores a committed segmentation result on the selection
func Commit(ws *Workspace, sel Selection, res SegmentResult) error {
	if res.Outcome != OutcomeCommitted {
		return fmt.Errorf("%w: nothing to commit (%s)", ErrInvalidOperation, res.Outcome)
	}
	return ws.UpdateFrame(sel, func(s *domain.AnnotationStore) error {
		s.SetPolygon(sel.ObjID, res.Polygon)
		return nil
	})
}

// ClearMask removes the committed polygon of the selection
func (w *Workflow) ClearMask(ws *Workspace, sel Selection) error {
	if err := ValidateObjectID(sel.ObjID); err != nil {
		return err
	}
	return ws.UpdateFrame(sel, func(s *domain.AnnotationStore) error {
		s.SetPolygon(sel.ObjID, nil)
		return nil
	})
}
