package sam2

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"tracewave/internal/application"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// DefaultCommand is the predictor executable looked up on PATH
const DefaultCommand = "sam2-predict"

// Oracle implements ports.SegmentationOracle by running an external
// predictor once per request
type Oracle struct {
	command string
	config  string
	weights string
	logger  *slog.Logger
}

var _ ports.SegmentationOracle = (*Oracle)(nil)

// Option configures the Oracle
type Option func(*Oracle)

// WithCommand sets the predictor executable
func WithCommand(command string) Option {
	return func(o *Oracle) {
		if command != "" {
			o.command = command
		}
	}
}

// WithConfig sets the model config name passed to the predictor
func WithConfig(name string) Option {
	return func(o *Oracle) {
		if name != "" {
			o.config = name
		}
	}
}

// WithWeights sets the absolute path of the model weights
func WithWeights(path string) Option {
	return func(o *Oracle) {
		o.weights = path
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *Oracle) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOracle creates a new predictor-backed oracle
func NewOracle(opts ...Option) *Oracle {
	o := &Oracle{
		command: DefaultCommand,
		config:  domain.DefaultOracleConfig,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FromProject builds an oracle from the project's segmentation settings
func FromProject(p *domain.Project, command string, logger *slog.Logger) *Oracle {
	weights := ""
	if p.Oracle.WeightsPath != "" {
		weights = p.Resolve(p.Oracle.WeightsPath)
	}
	return NewOracle(
		WithCommand(command),
		WithConfig(p.Oracle.ConfigName),
		WithWeights(weights),
		WithLogger(logger),
	)
}

// Status checks that the predictor and the weights exist
func (o *Oracle) Status() ports.OracleStatus {
	if _, err := exec.LookPath(o.command); err != nil {
		return unavailable(fmt.Sprintf("segmentation command %q not found", o.command))
	}
	if o.weights == "" {
		return unavailable("no model weights configured")
	}
	if _, err := os.Stat(o.weights); err != nil {
		return unavailable(fmt.Sprintf("model weights not found: %s", o.weights))
	}
	return ports.OracleStatus{State: ports.OracleReady}
}

func unavailable(reason string) ports.OracleStatus {
	return ports.OracleStatus{State: ports.OracleUnavailable, Reason: reason}
}

// request is written to the predictor's stdin
type request struct {
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	RGB       string   `json:"rgb"` // base64 of the packed RGB bytes
	Points    [][2]int `json:"points"`
	Labels    []int    `json:"labels"`
	Box       []int    `json:"box,omitempty"` // x, y, w, h
	Multimask bool     `json:"multimask"`
}

// response is read from the predictor's stdout
type response struct {
	Status string `json:"status"` // ok, empty, unavailable, error
	Error  string `json:"error,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Counts []int  `json:"counts"`
}

// Segment runs the predictor for one mask
func (o *Oracle) Segment(ctx context.Context, req ports.SegmentRequest) (*domain.Mask, error) {
	if st := o.Status(); !st.Ready() {
		return nil, fmt.Errorf("%w: %s", application.ErrUnavailable, st.Reason)
	}

	payload, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, o.command, "--config", o.config, "--weights", o.weights)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	o.logger.Debug("running predictor", "command", o.command, "width", req.Width, "height", req.Height, "points", len(req.Points))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s exited with %d: %s",
				application.ErrExternalProcess, o.command, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%w: %s: %v", application.ErrExternalProcess, o.command, err)
	}

	return decodeResponse(stdout.Bytes())
}

func encodeRequest(req ports.SegmentRequest) ([]byte, error) {
	if len(req.RGB) != req.Width*req.Height*3 {
		return nil, &application.ValidationError{
			Field:   "rgb",
			Message: fmt.Sprintf("%d bytes for a %dx%d image", len(req.RGB), req.Width, req.Height),
		}
	}

	r := request{
		Width:  req.Width,
		Height: req.Height,
		RGB:    base64.StdEncoding.EncodeToString(req.RGB),
		Points: make([][2]int, len(req.Points)),
		Labels: req.Labels,
	}
	for i, p := range req.Points {
		r.Points[i] = [2]int{p.X, p.Y}
	}
	if r.Labels == nil {
		r.Labels = []int{}
	}
	if req.Box != nil && req.Box.Valid() {
		r.Box = []int{req.Box.X, req.Box.Y, req.Box.W, req.Box.H}
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode segmentation request: %w", err)
	}
	return data, nil
}

func decodeResponse(data []byte) (*domain.Mask, error) {
	var resp response
	if err := json.Unmarshal(bytes.TrimSpace(data), &resp); err != nil {
		return nil, fmt.Errorf("%w: predictor output: %v", application.ErrMalformed, err)
	}

	switch resp.Status {
	case "unavailable":
		return nil, fmt.Errorf("%w: %s", application.ErrUnavailable, resp.Error)
	case "error":
		return nil, fmt.Errorf("%w: predictor: %s", application.ErrExternalProcess, resp.Error)
	case "empty":
		return nil, nil
	case "ok", "":
	default:
		return nil, fmt.Errorf("%w: unknown predictor status %q", application.ErrMalformed, resp.Status)
	}

	if len(resp.Counts) == 0 {
		return nil, nil
	}
	mask, err := domain.MaskFromRuns(resp.Width, resp.Height, resp.Counts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", application.ErrMalformed, err)
	}
	if mask.Area() == 0 {
		return nil, nil
	}
	return mask, nil
}
