package filesystem

import (
	"bytes"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// YAMLExporter implements ports.PromptExporter
type YAMLExporter struct{}

var _ ports.PromptExporter = (*YAMLExporter)(nil)

// NewYAMLExporter creates a new exporter
func NewYAMLExporter() *YAMLExporter {
	return &YAMLExporter{}
}

type exportFile struct {
	Prompts []exportPrompt `yaml:"prompts"`
}

type exportPrompt struct {
	FrameIdx int     `yaml:"frame_idx"`
	ObjID    int     `yaml:"obj_id"`
	Class    string  `yaml:"class,omitempty"`
	Points   [][]int `yaml:"points,flow"`
	Labels   []int   `yaml:"labels,flow"`
	Box      []int   `yaml:"box,omitempty,flow"`
	Polygon  [][]int `yaml:"polygon,omitempty,flow"`
}

// Export writes <dir>/<baseName>.yaml
func (e *YAMLExporter) Export(dir, baseName string, records []domain.Record) (string, error) {
	data, err := EncodeExport(records)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, baseName+".yaml")
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// EncodeExport renders records in the prompt export format
func EncodeExport(records []domain.Record) ([]byte, error) {
	file := exportFile{Prompts: make([]exportPrompt, 0, len(records))}
	for _, r := range records {
		p := exportPrompt{
			FrameIdx: r.FrameIdx,
			ObjID:    r.ObjID,
			Class:    r.Class,
			Points:   intPairs(r.Points),
			Labels:   r.Labels,
		}
		if p.Labels == nil {
			p.Labels = []int{}
		}
		if r.Box != nil {
			p.Box = []int{r.Box.X, r.Box.Y, r.Box.W, r.Box.H}
		}
		if len(r.Polygon) >= domain.MinPolygonVertices {
			p.Polygon = intPairs(r.Polygon)
		}
		file.Prompts = append(file.Prompts, p)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return buf.Bytes(), nil
}

func intPairs(pts []domain.Point) [][]int {
	out := make([][]int, len(pts))
	for i, p := range pts {
		out[i] = []int{p.X, p.Y}
	}
	return out
}
