package domain

import (
	"fmt"
	"slices"
	"strings"
)

// AnnotationSchemaVersion is the version written to the annotations file
const AnnotationSchemaVersion = 1

// DefaultObjectID is used when a record does not name its object
const DefaultObjectID = 1

// Record is one flattened annotation unit for a single (video, frame, object)
type Record struct {
	VideoID  string
	FrameIdx int
	ObjID    int
	Points   []Point
	Labels   []int
	Class    string
	Box      *Box
	Polygon  []Point
}

// SkippedRecord describes a record that was not loaded
type SkippedRecord struct {
	Index   int // position in the source list
	VideoID string
	Reason  string
}

// LoadReport aggregates per-record validation outcomes
type LoadReport struct {
	Accepted int
	Skipped  []SkippedRecord
}

// Skip records a skipped record
func (r *LoadReport) Skip(index int, videoID, reason string) {
	r.Skipped = append(r.Skipped, SkippedRecord{Index: index, VideoID: videoID, Reason: reason})
}

// Merge folds another report into r
func (r *LoadReport) Merge(other LoadReport) {
	r.Accepted += other.Accepted
	r.Skipped = append(r.Skipped, other.Skipped...)
}

// ToRecords flattens a store into records, frames and objects in ascending order.
// Objects without content are omitted.
func ToRecords(videoID string, store *AnnotationStore) []Record {
	var records []Record
	for _, fidx := range store.TouchedFrames() {
		fr := store.ann[fidx]
		for _, oid := range fr.ObjectIDs() {
			obj := fr.Objects[oid]
			if !obj.HasContent() {
				continue
			}
			rec := Record{
				VideoID:  videoID,
				FrameIdx: fidx,
				ObjID:    oid,
				Points:   slices.Clone(obj.Points),
				Labels:   slices.Clone(obj.Labels),
				Class:    obj.ClassName,
			}
			if rec.Points == nil {
				rec.Points = []Point{}
			}
			if rec.Labels == nil {
				rec.Labels = []int{}
			}
			if obj.HasBox() {
				b := *obj.Box
				rec.Box = &b
			}
			if obj.HasPolygon() {
				rec.Polygon = slices.Clone(obj.Polygon)
			}
			records = append(records, rec)
		}
	}
	return records
}

// ValidateRecord checks a decoded record before it is routed to a store
func ValidateRecord(rec Record) error {
	if rec.VideoID == "" {
		return fmt.Errorf("missing videoId")
	}
	if rec.FrameIdx < 0 {
		return fmt.Errorf("negative frameIdx %d", rec.FrameIdx)
	}
	if rec.ObjID <= 0 {
		return fmt.Errorf("objId must be positive, got %d", rec.ObjID)
	}
	if len(rec.Points) != len(rec.Labels) {
		return fmt.Errorf("%d points but %d labels", len(rec.Points), len(rec.Labels))
	}
	for i, l := range rec.Labels {
		if l != LabelBackground && l != LabelForeground {
			return fmt.Errorf("label %d at position %d is not 0 or 1", l, i)
		}
	}
	return nil
}

// LoadRecords applies records to a store. Each accepted record replaces the
// (frame, object) annotation wholesale, so a later duplicate wins. Invalid
// records are skipped and reported; they never abort the load.
func LoadRecords(records []Record, store *AnnotationStore) LoadReport {
	var report LoadReport
	for i, rec := range records {
		if err := ValidateRecord(rec); err != nil {
			report.Skip(i, rec.VideoID, err.Error())
			continue
		}

		obj := &ObjectAnnotation{ClassName: rec.Class}
		if len(rec.Points) > 0 {
			obj.Points = slices.Clone(rec.Points)
			obj.Labels = slices.Clone(rec.Labels)
		}
		if rec.Box != nil {
			b := *rec.Box
			obj.Box = &b
		}
		if len(rec.Polygon) >= MinPolygonVertices {
			obj.Polygon = slices.Clone(rec.Polygon)
		}
		store.frame(rec.FrameIdx).Objects[rec.ObjID] = obj
		report.Accepted++
	}
	return report
}

// GroupByVideo splits records by video id, keeping their relative order
func GroupByVideo(records []Record) map[string][]Record {
	grouped := make(map[string][]Record)
	for _, rec := range records {
		grouped[rec.VideoID] = append(grouped[rec.VideoID], rec)
	}
	return grouped
}

// Summary renders the record on a single line
func (r Record) Summary() string {
	parts := []string{fmt.Sprintf("frame %d  obj %d", r.FrameIdx, r.ObjID)}
	if r.Class != "" {
		parts = append(parts, "class "+r.Class)
	}
	if len(r.Points) > 0 {
		pts := make([]string, len(r.Points))
		for i, p := range r.Points {
			pts[i] = fmt.Sprintf("(%d,%d):%d", p.X, p.Y, r.Labels[i])
		}
		parts = append(parts, "points "+strings.Join(pts, " "))
	}
	if r.Box != nil {
		parts = append(parts, fmt.Sprintf("box [%d,%d,%d,%d]", r.Box.X, r.Box.Y, r.Box.W, r.Box.H))
	}
	if len(r.Polygon) > 0 {
		parts = append(parts, fmt.Sprintf("polygon %d vertices", len(r.Polygon)))
	}
	return strings.Join(parts, "  ")
}
