package filesystem

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"tracewave/internal/application"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// AnnotationStore implements ports.AnnotationRepository over a JSON file
type AnnotationStore struct{}

var _ ports.AnnotationRepository = (*AnnotationStore)(nil)

// NewAnnotationStore creates a new annotation file store
func NewAnnotationStore() *AnnotationStore {
	return &AnnotationStore{}
}

type annotationFileJSON struct {
	SchemaVersion int          `json:"schemaVersion"`
	Annotations   []recordJSON `json:"annotations"`
}

type recordJSON struct {
	VideoID  string   `json:"videoId"`
	FrameIdx int      `json:"frameIdx"`
	ObjID    int      `json:"objId"`
	Points   [][2]int `json:"points"`
	Labels   []int    `json:"labels"`
	Class    string   `json:"class,omitempty"`
	Box      []int    `json:"box,omitempty"`
	Polygon  [][2]int `json:"polygon,omitempty"`
}

// Load reads the annotations file. Records that cannot be decoded or fail
// validation are reported and skipped.
func (s *AnnotationStore) Load(path string) (*ports.AnnotationFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ports.AnnotationFile{SchemaVersion: domain.AnnotationSchemaVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}
	return DecodeAnnotations(data)
}

// DecodeAnnotations parses annotation file content
func DecodeAnnotations(data []byte) (*ports.AnnotationFile, error) {
	out := &ports.AnnotationFile{}

	var items []json.RawMessage
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		out.SchemaVersion = domain.AnnotationSchemaVersion
		return out, nil
	case trimmed[0] == '[':
		// bare list of records, written before the file carried a version
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("annotations file: %w: %v", application.ErrMalformed, err)
		}
		out.Warning = "annotations file has no schema version"
	default:
		var top map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &top); err != nil {
			return nil, fmt.Errorf("annotations file: %w: %v", application.ErrMalformed, err)
		}
		if raw, ok := top["schemaVersion"]; ok {
			v, err := decodeInt(raw)
			if err == nil {
				out.SchemaVersion = v
			}
		}
		if raw, ok := top["annotations"]; ok && !isNull(raw) {
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("annotations list: %w: %v", application.ErrMalformed, err)
			}
		}
		if out.SchemaVersion != domain.AnnotationSchemaVersion {
			out.Warning = fmt.Sprintf("annotations schema version %d, expected %d", out.SchemaVersion, domain.AnnotationSchemaVersion)
		}
	}

	for i, raw := range items {
		rec, err := decodeRecord(raw)
		if err == nil {
			err = domain.ValidateRecord(rec)
		}
		if err != nil {
			out.Report.Skip(i, rec.VideoID, err.Error())
			continue
		}
		out.Records = append(out.Records, rec)
		out.Report.Accepted++
	}
	return out, nil
}

func decodeRecord(raw json.RawMessage) (domain.Record, error) {
	rec := domain.Record{ObjID: domain.DefaultObjectID}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return rec, fmt.Errorf("record is not an object")
	}

	if v, ok := fields["videoId"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &rec.VideoID); err != nil {
			return rec, fmt.Errorf("videoId must be a string")
		}
	}

	v, ok := fields["frameIdx"]
	if !ok || isNull(v) {
		return rec, fmt.Errorf("missing frameIdx")
	}
	n, err := decodeInt(v)
	if err != nil {
		return rec, fmt.Errorf("frameIdx: %w", err)
	}
	rec.FrameIdx = n

	if v, ok := fields["objId"]; ok && !isNull(v) {
		n, err := decodeInt(v)
		if err != nil {
			return rec, fmt.Errorf("objId: %w", err)
		}
		rec.ObjID = n
	}

	if v, ok := fields["points"]; ok && !isNull(v) {
		pts, err := decodePoints(v)
		if err != nil {
			return rec, fmt.Errorf("points: %w", err)
		}
		rec.Points = pts
	}

	if v, ok := fields["labels"]; ok && !isNull(v) {
		labels, err := decodeInts(v)
		if err != nil {
			return rec, fmt.Errorf("labels: %w", err)
		}
		if len(labels) > 0 {
			rec.Labels = labels
		}
	}

	if v, ok := fields["class"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &rec.Class); err != nil {
			return rec, fmt.Errorf("class must be a string")
		}
	}

	if v, ok := fields["box"]; ok && !isNull(v) {
		b, err := decodeInts(v)
		if err != nil || len(b) != 4 {
			return rec, fmt.Errorf("box must be 4 integers")
		}
		rec.Box = &domain.Box{X: b[0], Y: b[1], W: b[2], H: b[3]}
	}

	if v, ok := fields["polygon"]; ok && !isNull(v) {
		poly, err := decodePoints(v)
		if err != nil {
			return rec, fmt.Errorf("polygon: %w", err)
		}
		if len(poly) >= domain.MinPolygonVertices {
			rec.Polygon = poly
		}
	}

	return rec, nil
}

func decodePoints(raw json.RawMessage) ([]domain.Point, error) {
	var pairs []json.RawMessage
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("expected a list of [x, y] pairs")
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	pts := make([]domain.Point, len(pairs))
	for i, pair := range pairs {
		xy, err := decodeInts(pair)
		if err != nil || len(xy) != 2 {
			return nil, fmt.Errorf("entry %d is not an [x, y] pair", i)
		}
		pts[i] = domain.Point{X: xy[0], Y: xy[1]}
	}
	return pts, nil
}

// Save atomically writes the records in the given order
func (s *AnnotationStore) Save(path string, records []domain.Record) error {
	data, err := EncodeAnnotations(records)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// EncodeAnnotations renders records as annotation file content
func EncodeAnnotations(records []domain.Record) ([]byte, error) {
	file := annotationFileJSON{
		SchemaVersion: domain.AnnotationSchemaVersion,
		Annotations:   make([]recordJSON, 0, len(records)),
	}
	for _, r := range records {
		file.Annotations = append(file.Annotations, toRecordJSON(r))
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotations: %w", err)
	}
	return append(data, '\n'), nil
}

func toRecordJSON(r domain.Record) recordJSON {
	out := recordJSON{
		VideoID:  r.VideoID,
		FrameIdx: r.FrameIdx,
		ObjID:    r.ObjID,
		Points:   pairs(r.Points),
		Labels:   r.Labels,
		Class:    r.Class,
	}
	if out.Labels == nil {
		out.Labels = []int{}
	}
	if r.Box != nil {
		out.Box = []int{r.Box.X, r.Box.Y, r.Box.W, r.Box.H}
	}
	if len(r.Polygon) >= domain.MinPolygonVertices {
		out.Polygon = pairs(r.Polygon)
	}
	return out
}

func pairs(pts []domain.Point) [][2]int {
	out := make([][2]int, len(pts))
	for i, p := range pts {
		out[i] = [2]int{p.X, p.Y}
	}
	return out
}
