package domain

import (
	"path/filepath"
	"testing"
	"time"
)

func TestProject_ReadersWorkOnCopies(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "proj")
	p := NewProject(root, "demo", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	snapshot := func() Project { return *p }

	if got, want := snapshot().DescriptorPath(), filepath.Join(root, DescriptorFileName); got != want {
		t.Errorf("DescriptorPath() = %q, want %q", got, want)
	}
	if got, want := snapshot().FramesRootPath(), filepath.Join(root, DefaultFramesRoot); got != want {
		t.Errorf("FramesRootPath() = %q, want %q", got, want)
	}
	if got, want := snapshot().AnnotationsFilePath(), filepath.Join(root, DefaultAnnotationsPath); got != want {
		t.Errorf("AnnotationsFilePath() = %q, want %q", got, want)
	}
	if !snapshot().HasClass("object") {
		t.Error("HasClass(object) = false, want true")
	}
	if snapshot().HasClass("zebra") {
		t.Error("HasClass(zebra) = true, want false")
	}
}

func TestProject_RelativeAndResolve(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "proj")
	p := Project{Root: root}

	abs := filepath.Join(root, "frames", "clip")
	rel := p.Relative(abs)
	if rel != "frames/clip" {
		t.Errorf("Relative() = %q, want frames/clip", rel)
	}
	if got := p.Resolve(rel); got != abs {
		t.Errorf("Resolve(%q) = %q, want %q", rel, got, abs)
	}

	outside := filepath.Join(string(filepath.Separator), "elsewhere", "clip")
	if got := p.Relative(outside); got != filepath.ToSlash(outside) {
		t.Errorf("Relative(outside) = %q, want it kept absolute", got)
	}
}

func TestObjectAnnotation_ReadersWorkOnCopies(t *testing.T) {
	s := newTestStore(2)
	s.SetCursor(1)
	s.SetBox(1, 0, 0, 3, 3)
	s.SetPolygon(1, []Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 2}})
	object := func() ObjectAnnotation {
		obj, _ := s.GetObject(1, 1)
		return obj
	}

	if !object().HasBox() {
		t.Error("HasBox() = false, want true")
	}
	if !object().HasPolygon() {
		t.Error("HasPolygon() = false, want true")
	}
	if !object().HasContent() {
		t.Error("HasContent() = false, want true")
	}
}
