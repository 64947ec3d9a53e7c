package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"tracewave/internal/domain"
)

func TestYAMLExporter_Export(t *testing.T) {
	dir := t.TempDir()
	records := []domain.Record{
		{VideoID: "v", FrameIdx: 0, ObjID: 1, Points: []domain.Point{{X: 1, Y: 2}}, Labels: []int{1}, Class: "bird"},
		{VideoID: "v", FrameIdx: 4, ObjID: 2, Box: &domain.Box{X: 1, Y: 1, W: 2, H: 3},
			Polygon: []domain.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}}},
	}

	path, err := NewYAMLExporter().Export(dir, "clip", records)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got struct {
		Prompts []map[string]any `yaml:"prompts"`
	}
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got.Prompts, 2)

	first := got.Prompts[0]
	assert.Equal(t, 0, first["frame_idx"])
	assert.Equal(t, 1, first["obj_id"])
	assert.Equal(t, "bird", first["class"])
	assert.Equal(t, []any{[]any{1, 2}}, first["points"])
	assert.NotContains(t, first, "box")
	assert.NotContains(t, first, "polygon")

	second := got.Prompts[1]
	assert.Equal(t, []any{1, 1, 2, 3}, second["box"])
	assert.Len(t, second["polygon"], 3)
	assert.Equal(t, []any{}, second["labels"])
	assert.NotContains(t, second, "class")
}

func TestEncodeExport_FlowStyle(t *testing.T) {
	data, err := EncodeExport([]domain.Record{
		{VideoID: "v", FrameIdx: 2, ObjID: 1, Points: []domain.Point{{X: 5, Y: 6}}, Labels: []int{0}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), "points: [[5, 6]]")
	assert.Contains(t, string(data), "labels: [0]")
}
