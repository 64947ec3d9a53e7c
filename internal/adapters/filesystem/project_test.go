package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracewave/internal/application"
	"tracewave/internal/domain"
)

func fixedStore(t time.Time) *ProjectStore {
	return &ProjectStore{now: func() time.Time { return t }}
}

func TestProjectStore_CreateAndLoad(t *testing.T) {
	root := filepath.Join(t.TempDir(), "proj")
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	p, err := fixedStore(created).Create(root, "Birds", false)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultClasses(), p.Classes)

	assert.DirExists(t, filepath.Join(root, "frames"))
	assert.FileExists(t, filepath.Join(root, "project.json"))
	assert.FileExists(t, filepath.Join(root, "annotations.json"))

	opened := created.Add(time.Hour)
	loaded, warning, err := fixedStore(opened).Load(filepath.Join(root, "project.json"))
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, "Birds", loaded.Name)
	assert.Equal(t, root, loaded.Root)
	assert.True(t, loaded.CreatedAt.Equal(created))
	assert.True(t, loaded.LastOpened.Equal(opened))
	assert.Equal(t, domain.DefaultUIState(), loaded.UI)
	assert.Equal(t, domain.DefaultSegmentationConfig(), loaded.Oracle)
}

func TestProjectStore_LoadAcceptsDirectory(t *testing.T) {
	root := t.TempDir()
	_, err := NewProjectStore().Create(root, "x", false)
	require.NoError(t, err)

	p, _, err := NewProjectStore().Load(root)
	require.NoError(t, err)
	assert.Equal(t, "x", p.Name)
}

func TestProjectStore_CreateConflicts(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	_, err := NewProjectStore().Create(root, "x", false)
	var conflict *application.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.True(t, errors.Is(err, application.ErrConflict))

	_, err = NewProjectStore().Create(root, "x", true)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "notes.txt"))
}

func TestProjectStore_CreateOnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := NewProjectStore().Create(path, "x", true)
	assert.True(t, errors.Is(err, application.ErrConflict))
}

func TestProjectStore_CreateKeepsExistingAnnotations(t *testing.T) {
	root := t.TempDir()
	existing := []byte(`{"schemaVersion": 1, "annotations": [{"videoId": "v", "frameIdx": 0, "box": [0, 0, 1, 1]}]}`)
	require.NoError(t, os.WriteFile(filepath.Join(root, "annotations.json"), existing, 0644))

	_, err := NewProjectStore().Create(root, "x", true)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "annotations.json"))
	require.NoError(t, err)
	assert.Equal(t, existing, data)
}

func TestProjectStore_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := NewProjectStore().Load(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, application.ErrNotFound))

	bad := filepath.Join(dir, "project.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0644))
	_, _, err = NewProjectStore().Load(bad)
	assert.True(t, errors.Is(err, application.ErrMalformed))
}

func TestProjectStore_LoadRepairsFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.json")
	data := `{
		"schemaVersion": 9,
		"projectName": 42,
		"createdAt": "yesterday",
		"videos": [
			{"id": "vid_1", "name": "a", "framesDir": "frames/a", "frameCount": 3},
			{"name": "no id"},
			"garbage"
		],
		"classes": [],
		"uiState": {"mode": "lasso", "lastObjId": 0, "lastVideoId": "vid_1", "lastFrameIndex": 2},
		"oracle": "bad"
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	p, warning, err := NewProjectStore().Load(path)
	require.NoError(t, err)

	assert.Contains(t, warning, "schema version 9")
	assert.Contains(t, warning, "createdAt")
	assert.Contains(t, warning, "invalid video entry 1")
	assert.Contains(t, warning, "invalid video entry 2")
	assert.Contains(t, warning, "oracle")

	assert.Equal(t, filepath.Base(dir), p.Name)
	require.Len(t, p.Videos, 1)
	assert.Equal(t, "vid_1", p.Videos[0].ID)
	assert.Equal(t, domain.DefaultClasses(), p.Classes)
	assert.Equal(t, domain.ModeBox, p.UI.Mode)
	assert.Equal(t, domain.DefaultObjectID, p.UI.LastObjID)
	assert.Equal(t, "vid_1", p.UI.LastVideoID)
	assert.Equal(t, 2, p.UI.LastFrameIndex)
	assert.Equal(t, domain.DefaultSegmentationConfig(), p.Oracle)
}

func TestProjectStore_SaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewProjectStore()
	p, err := store.Create(root, "x", false)
	require.NoError(t, err)

	fps := 29.97
	p.Videos = append(p.Videos, domain.VideoItem{ID: "vid_1", Name: "a", SourcePath: "/v/a.mp4", FramesDir: "frames/a", FrameCount: 10, FPS: &fps})
	p.Classes = append(p.Classes, domain.ClassLabel{Name: "bird", Color: "#112233"})
	p.UI = domain.UIState{LastVideoID: "vid_1", LastFrameIndex: 4, Mode: domain.ModePoint, ShowOnlyAnnotated: true, LastClass: "bird", LastObjID: 3}
	p.Oracle.AutoRun = false
	require.NoError(t, store.Save(p))

	loaded, warning, err := store.Load(root)
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, p.Videos, loaded.Videos)
	assert.Equal(t, p.Classes, loaded.Classes)
	assert.Equal(t, p.UI, loaded.UI)
	assert.Equal(t, p.Oracle, loaded.Oracle)
}
