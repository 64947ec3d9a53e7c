package domain

import "slices"

// Point labels
const (
	LabelBackground = 0
	LabelForeground = 1
)

// MinPolygonVertices is the smallest vertex count that makes a polygon meaningful
const MinPolygonVertices = 3

// Point is an integer pixel coordinate
type Point struct {
	X int
	Y int
}

// Box is an axis-aligned rectangle in pixel space
type Box struct {
	X int
	Y int
	W int
	H int
}

// Valid reports whether the box has a positive area
func (b Box) Valid() bool {
	return b.W > 0 && b.H > 0
}

// ObjectAnnotation holds everything recorded for one object on one frame.
// Box, points and polygon are independent and may coexist.
type ObjectAnnotation struct {
	Box       *Box
	Points    []Point
	Labels    []int // parallel to Points
	Polygon   []Point
	ClassName string // empty means no class
}

// HasBox reports whether a box with positive area is set
func (o ObjectAnnotation) HasBox() bool {
	return o.Box != nil && o.Box.Valid()
}

// HasPolygon reports whether the polygon has enough vertices to count
func (o ObjectAnnotation) HasPolygon() bool {
	return len(o.Polygon) >= MinPolygonVertices
}

// HasContent reports whether the object carries any geometry worth persisting.
// A class name on its own is not content.
func (o ObjectAnnotation) HasContent() bool {
	return o.HasBox() || len(o.Points) > 0 || o.HasPolygon()
}

func (o *ObjectAnnotation) addPoint(x, y, label int) {
	o.Points = append(o.Points, Point{X: x, Y: y})
	o.Labels = append(o.Labels, label)
}

func (o *ObjectAnnotation) removePoint(x, y, label int) bool {
	for i, p := range o.Points {
		if p.X == x && p.Y == y && o.Labels[i] == label {
			o.Points = slices.Delete(o.Points, i, i+1)
			o.Labels = slices.Delete(o.Labels, i, i+1)
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (o ObjectAnnotation) Clone() ObjectAnnotation {
	c := ObjectAnnotation{
		Points:    slices.Clone(o.Points),
		Labels:    slices.Clone(o.Labels),
		Polygon:   slices.Clone(o.Polygon),
		ClassName: o.ClassName,
	}
	if o.Box != nil {
		b := *o.Box
		c.Box = &b
	}
	return c
}

// FrameAnnotation maps operator-chosen object ids to their annotations
type FrameAnnotation struct {
	Objects map[int]*ObjectAnnotation
}

func newFrameAnnotation() *FrameAnnotation {
	return &FrameAnnotation{Objects: make(map[int]*ObjectAnnotation)}
}

func (f *FrameAnnotation) ensureObject(objID int) *ObjectAnnotation {
	obj, ok := f.Objects[objID]
	if !ok {
		obj = &ObjectAnnotation{}
		f.Objects[objID] = obj
	}
	return obj
}

// ObjectIDs returns the frame's object ids in ascending order
func (f *FrameAnnotation) ObjectIDs() []int {
	ids := make([]int, 0, len(f.Objects))
	for id := range f.Objects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// HasContent reports whether any object on the frame has content
func (f *FrameAnnotation) HasContent() bool {
	for _, obj := range f.Objects {
		if obj.HasContent() {
			return true
		}
	}
	return false
}
