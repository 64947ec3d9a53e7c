package domain

import (
	"reflect"
	"strings"
	"testing"
)

func TestToRecords_OrderAndFiltering(t *testing.T) {
	s := newTestStore(6)

	s.SetCursor(4)
	s.AddPoint(2, 1, 1, 1)
	s.AddPoint(1, 2, 2, 0)

	s.SetCursor(1)
	s.SetBox(3, 0, 0, 10, 10)
	s.SetClass(3, "car")
	s.SetClass(1, "class-only")
	s.SetBox(2, 0, 0, 0, 3) // zero-area box alone is not content
	s.SetPolygon(5, []Point{{0, 0}, {1, 1}})

	records := ToRecords("vid_a", s)

	var keys [][2]int
	for _, r := range records {
		keys = append(keys, [2]int{r.FrameIdx, r.ObjID})
		if r.VideoID != "vid_a" {
			t.Errorf("record video id = %q", r.VideoID)
		}
	}
	want := [][2]int{{1, 3}, {4, 1}, {4, 2}}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("record keys = %v, want %v", keys, want)
	}

	if records[0].Class != "car" || records[0].Box == nil || records[0].Polygon != nil {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].Box != nil {
		t.Errorf("record without box carries one: %+v", records[1])
	}
}

func TestToRecords_OmitsInvalidBoxAndShortPolygon(t *testing.T) {
	s := newTestStore(1)
	s.AddPoint(1, 4, 4, 1)
	s.SetBox(1, 1, 1, 0, 0)
	s.SetPolygon(1, []Point{{0, 0}, {2, 2}})

	records := ToRecords("v", s)
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0].Box != nil {
		t.Error("zero-area box was serialized")
	}
	if records[0].Polygon != nil {
		t.Error("two-vertex polygon was serialized")
	}
}

func TestRoundTrip_ReproducesStore(t *testing.T) {
	src := newTestStore(8)

	src.SetCursor(0)
	src.AddPoint(1, 10, 20, 1)
	src.AddPoint(1, 10, 20, 1)
	src.AddPoint(1, 30, 40, 0)
	src.SetClass(1, "person")

	src.SetCursor(3)
	src.SetBox(2, 5, 6, 7, 8)
	src.SetPolygon(2, []Point{{5, 6}, {12, 6}, {12, 14}, {5, 14}})
	src.AddPoint(7, 1, 1, 0)

	src.SetCursor(7)
	src.SetPolygon(4, []Point{{0, 0}, {3, 0}, {0, 3}})

	dst := newTestStore(8)
	report := LoadRecords(ToRecords("vid", src), dst)
	if len(report.Skipped) != 0 {
		t.Fatalf("unexpected skips: %+v", report.Skipped)
	}

	for f := 0; f < 8; f++ {
		if src.IsFrameAnnotated(f) != dst.IsFrameAnnotated(f) {
			t.Errorf("frame %d annotated mismatch", f)
		}
		if !reflect.DeepEqual(src.Objects(f), dst.Objects(f)) {
			t.Errorf("frame %d objects differ:\n src %+v\n dst %+v", f, src.Objects(f), dst.Objects(f))
		}
	}
	if !reflect.DeepEqual(ToRecords("vid", src), ToRecords("vid", dst)) {
		t.Error("records differ after round trip")
	}
	if dst.Dirty() {
		t.Error("loading should not dirty the store")
	}
}

func TestToRecords_Idempotent(t *testing.T) {
	s := newTestStore(4)
	for f := 3; f >= 0; f-- {
		s.SetCursor(f)
		for o := 5; o >= 1; o -= 2 {
			s.AddPoint(o, f, o, 1)
		}
	}
	first := ToRecords("v", s)
	second := ToRecords("v", s)
	if !reflect.DeepEqual(first, second) {
		t.Error("two flattenings of an unchanged store differ")
	}
}

func TestLoadRecords_LaterRecordReplacesWholesale(t *testing.T) {
	s := newTestStore(3)
	records := []Record{
		{
			VideoID: "v", FrameIdx: 1, ObjID: 1,
			Points: []Point{{1, 1}}, Labels: []int{1},
			Class: "car", Box: &Box{0, 0, 3, 3},
			Polygon: []Point{{0, 0}, {3, 0}, {3, 3}},
		},
		{
			VideoID: "v", FrameIdx: 1, ObjID: 1,
			Points: []Point{{9, 9}}, Labels: []int{0},
		},
	}

	report := LoadRecords(records, s)
	if report.Accepted != 2 {
		t.Errorf("Accepted = %d, want 2", report.Accepted)
	}

	obj, ok := s.GetObject(1, 1)
	if !ok {
		t.Fatal("object missing")
	}
	want := ObjectAnnotation{Points: []Point{{9, 9}}, Labels: []int{0}}
	if !reflect.DeepEqual(obj, want) {
		t.Errorf("object = %+v, want %+v", obj, want)
	}
}

func TestLoadRecords_SkipsInvalidAndReports(t *testing.T) {
	s := newTestStore(3)
	records := []Record{
		{VideoID: "v", FrameIdx: 0, ObjID: 1, Points: []Point{{1, 1}}, Labels: []int{1}},
		{VideoID: "v", FrameIdx: -1, ObjID: 1},
		{VideoID: "v", FrameIdx: 0, ObjID: 0},
		{VideoID: "v", FrameIdx: 0, ObjID: 2, Points: []Point{{1, 1}}},
		{VideoID: "v", FrameIdx: 0, ObjID: 3, Points: []Point{{1, 1}}, Labels: []int{2}},
		{VideoID: "", FrameIdx: 0, ObjID: 1},
		{VideoID: "v", FrameIdx: 2, ObjID: 4, Box: &Box{1, 1, 2, 2}},
	}

	report := LoadRecords(records, s)
	if report.Accepted != 2 {
		t.Errorf("Accepted = %d, want 2", report.Accepted)
	}

	wantSkipped := []int{1, 2, 3, 4, 5}
	var got []int
	for _, sk := range report.Skipped {
		got = append(got, sk.Index)
		if sk.Reason == "" {
			t.Errorf("skip %d has no reason", sk.Index)
		}
	}
	if !reflect.DeepEqual(got, wantSkipped) {
		t.Errorf("skipped = %v, want %v", got, wantSkipped)
	}
	if !strings.Contains(report.Skipped[2].Reason, "labels") {
		t.Errorf("reason = %q, want mention of labels", report.Skipped[2].Reason)
	}

	if !s.IsFrameAnnotated(0) || !s.IsFrameAnnotated(2) {
		t.Error("valid records were not applied")
	}
}

func TestLoadRecords_ShortPolygonLoadsAsAbsent(t *testing.T) {
	s := newTestStore(1)
	LoadRecords([]Record{{
		VideoID: "v", ObjID: 1,
		Points: []Point{{1, 1}}, Labels: []int{1},
		Polygon: []Point{{0, 0}, {1, 1}},
	}}, s)

	obj, _ := s.GetObject(0, 1)
	if obj.Polygon != nil {
		t.Errorf("polygon = %v, want nil", obj.Polygon)
	}
}

func TestGroupByVideo(t *testing.T) {
	records := []Record{
		{VideoID: "a", FrameIdx: 1},
		{VideoID: "b", FrameIdx: 2},
		{VideoID: "a", FrameIdx: 3},
	}
	grouped := GroupByVideo(records)
	if len(grouped) != 2 {
		t.Fatalf("got %d groups", len(grouped))
	}
	if grouped["a"][0].FrameIdx != 1 || grouped["a"][1].FrameIdx != 3 {
		t.Errorf("group a out of order: %+v", grouped["a"])
	}
}

func TestRecordSummary(t *testing.T) {
	r := Record{
		FrameIdx: 3, ObjID: 2, Class: "object",
		Points:  []Point{{X: 4, Y: 5}, {X: 6, Y: 7}},
		Labels:  []int{1, 0},
		Box:     &Box{X: 1, Y: 1, W: 3, H: 3},
		Polygon: []Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}},
	}

	want := "frame 3  obj 2  class object  points (4,5):1 (6,7):0  box [1,1,3,3]  polygon 3 vertices"
	if got := r.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	bare := Record{FrameIdx: 0, ObjID: 1}
	if got := bare.Summary(); got != "frame 0  obj 1" {
		t.Errorf("Summary() = %q", got)
	}
}
