package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracewave/internal/application"
	"tracewave/internal/application/apptest"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

var ready = ports.OracleStatus{State: ports.OracleReady}

func newWorkflow(oracle *apptest.Oracle, images *apptest.Images) *application.Workflow {
	return application.NewWorkflow(oracle, images, nil)
}

func TestSegment_Outcomes(t *testing.T) {
	square := apptest.SquareMask(8, 8, 2, 2, 3)
	onePixel := apptest.SquareMask(8, 8, 4, 4, 1)
	box := &domain.Box{X: 1, Y: 1, W: 5, H: 5}
	pts := []domain.Point{{X: 3, Y: 3}}
	lbl := []int{domain.LabelForeground}

	tests := []struct {
		name     string
		oracle   *apptest.Oracle
		images   *apptest.Images
		points   []domain.Point
		labels   []int
		box      *domain.Box
		want     application.Outcome
		wantErr  error
		wantCall bool
	}{
		{
			name:   "no prompt",
			oracle: &apptest.Oracle{State: ready, Mask: square},
			images: &apptest.Images{Image: apptest.Image(8, 8)},
			want:   application.OutcomeNoPrompt,
		},
		{
			name:   "zero area box is no prompt",
			oracle: &apptest.Oracle{State: ready, Mask: square},
			images: &apptest.Images{Image: apptest.Image(8, 8)},
			box:    &domain.Box{X: 1, Y: 1},
			want:   application.OutcomeNoPrompt,
		},
		{
			name:   "oracle unavailable",
			oracle: &apptest.Oracle{State: ports.OracleStatus{State: ports.OracleUnavailable, Reason: "weights missing"}},
			images: &apptest.Images{Image: apptest.Image(8, 8)},
			points: pts, labels: lbl,
			want: application.OutcomeUnavailable,
		},
		{
			name:   "unsupported image",
			oracle: &apptest.Oracle{State: ready, Mask: square},
			images: &apptest.Images{Err: fmt.Errorf("webp: %w", application.ErrUnavailable)},
			points: pts, labels: lbl,
			want: application.OutcomeImageUnavailable,
		},
		{
			name:   "oracle reports unavailable while running",
			oracle: &apptest.Oracle{State: ready, Err: fmt.Errorf("model: %w", application.ErrUnavailable)},
			images: &apptest.Images{Image: apptest.Image(8, 8)},
			box:    box,
			want:   application.OutcomeUnavailable, wantCall: true,
		},
		{
			name:   "empty mask",
			oracle: &apptest.Oracle{State: ready},
			images: &apptest.Images{Image: apptest.Image(8, 8)},
			box:    box,
			want:   application.OutcomeNoPolygon, wantCall: true,
		},
		{
			name:   "degenerate mask",
			oracle: &apptest.Oracle{State: ready, Mask: onePixel},
			images: &apptest.Images{Image: apptest.Image(8, 8)},
			points: pts, labels: lbl,
			want: application.OutcomeNoPolygon, wantCall: true,
		},
		{
			name:   "committed",
			oracle: &apptest.Oracle{State: ready, Mask: square},
			images: &apptest.Images{Image: apptest.Image(8, 8)},
			points: pts, labels: lbl, box: box,
			want: application.OutcomeCommitted, wantCall: true,
		},
		{
			name:   "process failure is an error",
			oracle: &apptest.Oracle{State: ready, Err: fmt.Errorf("exit 1: %w", application.ErrExternalProcess)},
			images: &apptest.Images{Image: apptest.Image(8, 8)},
			points: pts, labels: lbl,
			wantErr: application.ErrExternalProcess, wantCall: true,
		},
		{
			name:   "mask size mismatch",
			oracle: &apptest.Oracle{State: ready, Mask: apptest.SquareMask(4, 4, 0, 0, 2)},
			images: &apptest.Images{Image: apptest.Image(8, 8)},
			points: pts, labels: lbl,
			wantErr: application.ErrMalformed, wantCall: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := newWorkflow(tt.oracle, tt.images)
			res, err := wf.Segment(context.Background(), "/f/00000.jpg", tt.points, tt.labels, tt.box)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, res.Outcome)
			}
			assert.Equal(t, tt.wantCall, len(tt.oracle.Requests) == 1)
		})
	}
}

func TestSegment_RequestCarriesPrompts(t *testing.T) {
	oracle := &apptest.Oracle{State: ready, Mask: apptest.SquareMask(8, 8, 2, 2, 3)}
	wf := newWorkflow(oracle, &apptest.Images{Image: apptest.Image(8, 8)})

	pts := []domain.Point{{X: 3, Y: 3}, {X: 0, Y: 0}}
	lbl := []int{domain.LabelForeground, domain.LabelBackground}
	res, err := wf.Segment(context.Background(), "/f.jpg", pts, lbl, &domain.Box{X: 1, Y: 1, W: 6, H: 6})
	require.NoError(t, err)

	assert.Equal(t, []domain.Point{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}}, res.Polygon)
	require.Len(t, oracle.Requests, 1)
	req := oracle.Requests[0]
	assert.Equal(t, 8, req.Width)
	assert.Len(t, req.RGB, 8*8*3)
	assert.Equal(t, pts, req.Points)
	assert.Equal(t, lbl, req.Labels)
	assert.Equal(t, &domain.Box{X: 1, Y: 1, W: 6, H: 6}, req.Box)
}

func TestRun_FailuresNeverMutate(t *testing.T) {
	env := apptest.NewEnv(t, []apptest.VideoSpec{{ID: "vid_a", Frames: 3}})
	ws := env.Workspace
	sel := application.Selection{VideoID: "vid_a", Frame: 1, ObjID: 1}

	wf := newWorkflow(&apptest.Oracle{State: ports.OracleStatus{State: ports.OracleUnavailable, Reason: "no command"}},
		&apptest.Images{Image: apptest.Image(8, 8)})
	require.NoError(t, wf.AddPrompt(sel, 3, 3, domain.LabelForeground))

	res, err := wf.Run(context.Background(), ws, sel)
	require.NoError(t, err)
	assert.Equal(t, application.OutcomeUnavailable, res.Outcome)
	assert.False(t, ws.Dirty())
	assert.Len(t, wf.Prompts(sel).Points, 1, "prompts are kept after a failed run")
}

func TestRun_CommitsPolygonAndKeepsPrompts(t *testing.T) {
	env := apptest.NewEnv(t, []apptest.VideoSpec{{ID: "vid_a", Frames: 3}})
	ws := env.Workspace
	sel := application.Selection{VideoID: "vid_a", Frame: 2, ObjID: 4}

	images := &apptest.Images{Image: apptest.Image(8, 8)}
	wf := newWorkflow(&apptest.Oracle{State: ready, Mask: apptest.SquareMask(8, 8, 1, 1, 4)}, images)
	require.NoError(t, wf.AddPrompt(sel, 2, 2, domain.LabelForeground))
	wf.SetPromptBox(sel, &domain.Box{X: 0, Y: 0, W: 6, H: 6})

	res, err := wf.Run(context.Background(), ws, sel)
	require.NoError(t, err)
	require.Equal(t, application.OutcomeCommitted, res.Outcome)

	require.NoError(t, ws.View("vid_a", func(s *domain.AnnotationStore) {
		obj, ok := s.GetObject(2, 4)
		require.True(t, ok)
		assert.Len(t, obj.Polygon, 4)
		assert.Empty(t, obj.Points, "transient prompts are not committed as points")
		assert.Equal(t, 0, s.Cursor())
	}))
	assert.Equal(t, env.FramesDir("vid_a")+"/00002.jpg", images.Paths[0])
	assert.NotEmpty(t, wf.Prompts(sel).Points)
	assert.NotNil(t, wf.Prompts(sel).Box)
}

func TestRun_FallsBackToCommittedPrompts(t *testing.T) {
	env := apptest.NewEnv(t, []apptest.VideoSpec{{ID: "vid_a", Frames: 3}})
	ws := env.Workspace
	sel := application.Selection{VideoID: "vid_a", Frame: 0, ObjID: 1}

	require.NoError(t, ws.UpdateFrame(sel, func(s *domain.AnnotationStore) error {
		s.AddPoint(1, 3, 3, domain.LabelForeground)
		s.SetBox(1, 1, 1, 5, 5)
		return nil
	}))

	oracle := &apptest.Oracle{State: ready, Mask: apptest.SquareMask(8, 8, 1, 1, 4)}
	wf := newWorkflow(oracle, &apptest.Images{Image: apptest.Image(8, 8)})

	res, err := wf.Run(context.Background(), ws, sel)
	require.NoError(t, err)
	assert.Equal(t, application.OutcomeCommitted, res.Outcome)
	require.Len(t, oracle.Requests, 1)
	assert.Equal(t, []domain.Point{{X: 3, Y: 3}}, oracle.Requests[0].Points)
	assert.Equal(t, &domain.Box{X: 1, Y: 1, W: 5, H: 5}, oracle.Requests[0].Box)

	require.NoError(t, ws.View("vid_a", func(s *domain.AnnotationStore) {
		obj, _ := s.GetObject(0, 1)
		assert.Len(t, obj.Points, 1, "committed points are untouched")
		assert.NotNil(t, obj.Box)
	}))
}

func TestRun_OutOfRangeFrame(t *testing.T) {
	env := apptest.NewEnv(t, []apptest.VideoSpec{{ID: "vid_a", Frames: 2}})
	wf := newWorkflow(&apptest.Oracle{State: ready}, &apptest.Images{})

	_, err := wf.Run(context.Background(), env.Workspace, application.Selection{VideoID: "vid_a", Frame: 5, ObjID: 1})
	assert.ErrorIs(t, err, application.ErrInvalidOperation)
}

func TestClearMask(t *testing.T) {
	env := apptest.NewEnv(t, []apptest.VideoSpec{{ID: "vid_a", Frames: 2}})
	ws := env.Workspace
	sel := application.Selection{VideoID: "vid_a", Frame: 1, ObjID: 1}

	require.NoError(t, ws.UpdateFrame(sel, func(s *domain.AnnotationStore) error {
		s.SetPolygon(1, []domain.Point{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 0, Y: 3}})
		return nil
	}))

	wf := newWorkflow(&apptest.Oracle{State: ready}, &apptest.Images{})
	require.NoError(t, wf.ClearMask(ws, sel))

	require.NoError(t, ws.View("vid_a", func(s *domain.AnnotationStore) {
		assert.False(t, s.IsFrameAnnotated(1))
	}))
}

func TestPrompts_PerSelection(t *testing.T) {
	wf := newWorkflow(&apptest.Oracle{}, &apptest.Images{})
	a := application.Selection{VideoID: "v", Frame: 0, ObjID: 1}
	b := application.Selection{VideoID: "v", Frame: 0, ObjID: 2}

	require.NoError(t, wf.AddPrompt(a, 1, 1, domain.LabelForeground))
	require.NoError(t, wf.AddPrompt(a, 2, 2, domain.LabelBackground))
	assert.Error(t, wf.AddPrompt(a, 3, 3, 7))

	assert.Len(t, wf.Prompts(a).Foreground(), 1)
	assert.Len(t, wf.Prompts(a).Background(), 1)
	assert.True(t, wf.Prompts(b).Empty())

	wf.ClearPrompts(a)
	assert.True(t, wf.Prompts(a).Empty())
}

func TestCommit_RejectsNonCommittedResult(t *testing.T) {
	env := apptest.NewEnv(t, []apptest.VideoSpec{{ID: "vid_a", Frames: 1}})
	err := application.Commit(env.Workspace, application.Selection{VideoID: "vid_a", ObjID: 1},
		application.SegmentResult{Outcome: application.OutcomeNoPolygon})
	assert.True(t, errors.Is(err, application.ErrInvalidOperation))
	assert.False(t, env.Workspace.Dirty())
}
