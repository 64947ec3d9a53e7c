package domain

import "slices"

// AnnotationStore holds the annotations of a single video.
// Only frames that were touched by a mutation occupy storage.
// Mutations apply to the frame under the cursor.
type AnnotationStore struct {
	frames []string
	ann    map[int]*FrameAnnotation
	cursor int
	dirty  bool
}

// NewAnnotationStore creates a store over an already ordered frame list
func NewAnnotationStore(frames []string) *AnnotationStore {
	return &AnnotationStore{
		frames: slices.Clone(frames),
		ann:    make(map[int]*FrameAnnotation),
	}
}

// FrameCount returns the number of frames backing the store
func (s *AnnotationStore) FrameCount() int {
	return len(s.frames)
}

// Frames returns the ordered frame paths
func (s *AnnotationStore) Frames() []string {
	return slices.Clone(s.frames)
}

// FramePath returns the path of frame i
func (s *AnnotationStore) FramePath(i int) (string, bool) {
	if i < 0 || i >= len(s.frames) {
		return "", false
	}
	return s.frames[i], true
}

// Cursor returns the current frame index
func (s *AnnotationStore) Cursor() int {
	return s.cursor
}

// SetCursor moves the cursor, clamped to the valid frame range, and returns the new position
func (s *AnnotationStore) SetCursor(i int) int {
	s.cursor = s.clamp(i)
	return s.cursor
}

func (s *AnnotationStore) clamp(i int) int {
	if len(s.frames) == 0 {
		return 0
	}
	return max(0, min(i, len(s.frames)-1))
}

// Dirty reports whether there are unsaved mutations
func (s *AnnotationStore) Dirty() bool {
	return s.dirty
}

// MarkClean clears the dirty flag after a successful save
func (s *AnnotationStore) MarkClean() {
	s.dirty = false
}

func (s *AnnotationStore) frame(idx int) *FrameAnnotation {
	fr, ok := s.ann[idx]
	if !ok {
		fr = newFrameAnnotation()
		s.ann[idx] = fr
	}
	return fr
}

func (s *AnnotationStore) current(objID int) *ObjectAnnotation {
	return s.frame(s.cursor).ensureObject(objID)
}

// AddPoint appends a labelled point to the object on the current frame
func (s *AnnotationStore) AddPoint(objID, x, y, label int) {
	s.current(objID).addPoint(x, y, label)
	s.dirty = true
}

// RemovePoint removes the first point matching (x, y, label) exactly.
// The store is only dirtied when a point was removed.
func (s *AnnotationStore) RemovePoint(objID, x, y, label int) bool {
	fr, ok := s.ann[s.cursor]
	if !ok {
		return false
	}
	obj, ok := fr.Objects[objID]
	if !ok {
		return false
	}
	if !obj.removePoint(x, y, label) {
		return false
	}
	s.dirty = true
	return true
}

// SetBox replaces the object's box
func (s *AnnotationStore) SetBox(objID, x, y, w, h int) {
	s.current(objID).Box = &Box{X: x, Y: y, W: w, H: h}
	s.dirty = true
}

// SetPolygon replaces the object's polygon; nil clears it
func (s *AnnotationStore) SetPolygon(objID int, polygon []Point) {
	obj := s.current(objID)
	if len(polygon) == 0 {
		obj.Polygon = nil
	} else {
		obj.Polygon = slices.Clone(polygon)
	}
	s.dirty = true
}

// SetClass sets the object's class name; an empty name clears it
func (s *AnnotationStore) SetClass(objID int, name string) {
	s.current(objID).ClassName = name
	s.dirty = true
}

// ClearObject resets the object to an empty annotation. The frame entry remains.
func (s *AnnotationStore) ClearObject(objID int) {
	s.frame(s.cursor).Objects[objID] = &ObjectAnnotation{}
	s.dirty = true
}

// GetObject returns a copy of the object's annotation on the given frame
func (s *AnnotationStore) GetObject(frameIdx, objID int) (ObjectAnnotation, bool) {
	fr, ok := s.ann[frameIdx]
	if !ok {
		return ObjectAnnotation{}, false
	}
	obj, ok := fr.Objects[objID]
	if !ok {
		return ObjectAnnotation{}, false
	}
	return obj.Clone(), true
}

// Objects returns copies of every object recorded on a frame, keyed by id
func (s *AnnotationStore) Objects(frameIdx int) map[int]ObjectAnnotation {
	fr, ok := s.ann[frameIdx]
	if !ok {
		return nil
	}
	out := make(map[int]ObjectAnnotation, len(fr.Objects))
	for id, obj := range fr.Objects {
		out[id] = obj.Clone()
	}
	return out
}

// IsFrameAnnotated reports whether some object on the frame has content
func (s *AnnotationStore) IsFrameAnnotated(frameIdx int) bool {
	fr, ok := s.ann[frameIdx]
	return ok && fr.HasContent()
}

// TouchedFrames returns the indices of frames that have an entry, ascending
func (s *AnnotationStore) TouchedFrames() []int {
	idxs := make([]int, 0, len(s.ann))
	for idx := range s.ann {
		idxs = append(idxs, idx)
	}
	slices.Sort(idxs)
	return idxs
}

// AnnotatedFrames returns the indices of frames with content, ascending
func (s *AnnotationStore) AnnotatedFrames() []int {
	var idxs []int
	for _, idx := range s.TouchedFrames() {
		if s.ann[idx].HasContent() {
			idxs = append(idxs, idx)
		}
	}
	return idxs
}

// NextAnnotated returns the first annotated frame after from
func (s *AnnotationStore) NextAnnotated(from int) (int, bool) {
	for _, idx := range s.AnnotatedFrames() {
		if idx > from {
			return idx, true
		}
	}
	return 0, false
}

// PrevAnnotated returns the last annotated frame before from
func (s *AnnotationStore) PrevAnnotated(from int) (int, bool) {
	annotated := s.AnnotatedFrames()
	for i := len(annotated) - 1; i >= 0; i-- {
		if annotated[i] < from {
			return annotated[i], true
		}
	}
	return 0, false
}
