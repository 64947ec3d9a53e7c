package sam2

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracewave/internal/application"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

func fakePredictor(t *testing.T, body string) (command, weights string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	dir := t.TempDir()
	command = filepath.Join(dir, "predict")
	require.NoError(t, os.WriteFile(command, []byte("#!/bin/sh\ncat > /dev/null\n"+body), 0755))
	weights = filepath.Join(dir, "model.pt")
	require.NoError(t, os.WriteFile(weights, nil, 0644))
	return command, weights
}

func request2x2() ports.SegmentRequest {
	return ports.SegmentRequest{
		Width: 2, Height: 2, RGB: make([]byte, 12),
		Points: []domain.Point{{X: 1, Y: 1}}, Labels: []int{1},
	}
}

func TestStatus(t *testing.T) {
	command, weights := fakePredictor(t, "")

	tests := []struct {
		name   string
		opts   []Option
		ready  bool
		reason string
	}{
		{"ready", []Option{WithCommand(command), WithWeights(weights)}, true, ""},
		{"missing command", []Option{WithCommand(filepath.Join(t.TempDir(), "nope")), WithWeights(weights)}, false, "not found"},
		{"no weights", []Option{WithCommand(command)}, false, "no model weights"},
		{"missing weights", []Option{WithCommand(command), WithWeights(weights + ".missing")}, false, "weights not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewOracle(tt.opts...).Status()
			assert.Equal(t, tt.ready, st.Ready())
			assert.Contains(t, st.Reason, tt.reason)
		})
	}
}

func TestSegment_DecodesMask(t *testing.T) {
	command, weights := fakePredictor(t, `echo '{"status":"ok","width":2,"height":2,"counts":[1,2,1]}'`)

	mask, err := NewOracle(WithCommand(command), WithWeights(weights)).Segment(context.Background(), request2x2())
	require.NoError(t, err)
	require.NotNil(t, mask)
	assert.Equal(t, []bool{false, true, true, false}, mask.Bits)
}

func TestSegment_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantNil bool
		wantErr error
	}{
		{"empty status", `echo '{"status":"empty"}'`, true, nil},
		{"no foreground", `echo '{"status":"ok","width":2,"height":2,"counts":[4]}'`, true, nil},
		{"unavailable", `echo '{"status":"unavailable","error":"no cuda"}'`, true, application.ErrUnavailable},
		{"predictor error", `echo '{"status":"error","error":"boom"}'`, true, application.ErrExternalProcess},
		{"exit code", `echo failed >&2; exit 3`, true, application.ErrExternalProcess},
		{"garbage", `echo 'not json'`, true, application.ErrMalformed},
		{"bad runs", `echo '{"status":"ok","width":2,"height":2,"counts":[1,9]}'`, true, application.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, weights := fakePredictor(t, tt.body)
			mask, err := NewOracle(WithCommand(command), WithWeights(weights)).Segment(context.Background(), request2x2())
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, mask)
			}
		})
	}
}

func TestSegment_UnavailableWithoutRunning(t *testing.T) {
	_, err := NewOracle(WithCommand(filepath.Join(t.TempDir(), "nope"))).Segment(context.Background(), request2x2())
	assert.True(t, errors.Is(err, application.ErrUnavailable))
}

func TestEncodeRequest(t *testing.T) {
	req := ports.SegmentRequest{
		Width: 1, Height: 1, RGB: []byte{1, 2, 3},
		Points: []domain.Point{{X: 0, Y: 0}}, Labels: []int{0},
		Box: &domain.Box{X: 0, Y: 0, W: 1, H: 1},
	}
	data, err := encodeRequest(req)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), got["rgb"])
	assert.Equal(t, []any{float64(0), float64(0), float64(1), float64(1)}, got["box"])
	assert.Equal(t, false, got["multimask"])

	req.Box = &domain.Box{W: 0, H: 5}
	data, err = encodeRequest(req)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"box"`)

	req.RGB = []byte{1}
	_, err = encodeRequest(req)
	var verr *application.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestFromProject_ResolvesWeights(t *testing.T) {
	p := domain.NewProject("/proj", "x", time.Now())
	p.Oracle.WeightsPath = "models/w.pt"
	o := FromProject(p, "", nil)
	assert.Equal(t, filepath.Join("/proj", "models", "w.pt"), o.weights)
	assert.Equal(t, DefaultCommand, o.command)
	assert.Equal(t, p.Oracle.ConfigName, o.config)
}
