package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"tracewave/internal/application"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// Importer implements ports.FrameExtractor by running ffmpeg and ffprobe
type Importer struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
	mu      sync.Mutex // serializes output directory reservation
}

var _ ports.FrameExtractor = (*Importer)(nil)

// Option configures the Importer
type Option func(*Importer)

// WithFFmpeg sets the ffmpeg binary
func WithFFmpeg(path string) Option {
	return func(im *Importer) {
		if path != "" {
			im.ffmpeg = path
		}
	}
}

// WithFFprobe sets the ffprobe binary
func WithFFprobe(path string) Option {
	return func(im *Importer) {
		if path != "" {
			im.ffprobe = path
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) {
		if logger != nil {
			im.logger = logger
		}
	}
}

// NewImporter creates a new ffmpeg importer
func NewImporter(opts ...Option) *Importer {
	im := &Importer{
		ffmpeg:  "ffmpeg",
		ffprobe: "ffprobe",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Check reports whether ffmpeg can be found
func (im *Importer) Check() error {
	if _, err := exec.LookPath(im.ffmpeg); err != nil {
		return fmt.Errorf("%s not found: %w", im.ffmpeg, application.ErrUnavailable)
	}
	return nil
}

// Import extracts every source in the background. A failing video is
// reported and skipped; the rest of the batch continues.
func (im *Importer) Import(ctx context.Context, req ports.ImportRequest) <-chan ports.ImportEvent {
	total := len(req.Sources)
	// two events per video plus Finished, so workers never block on a slow reader
	events := make(chan ports.ImportEvent, 2*total+1)

	go func() {
		defer close(events)

		results := make([]*ports.ImportResult, total)
		var g errgroup.Group
		g.SetLimit(max(1, req.Workers))

		for i, src := range req.Sources {
			idx := i + 1
			name := filepath.Base(src)
			g.Go(func() error {
				events <- ports.ImportEvent{
					Kind: ports.ImportProgress, Index: idx, Total: total, Source: src,
					Message: fmt.Sprintf("Extracting %s (%d/%d)", name, idx, total),
				}

				res, err := im.extract(ctx, src, req)
				if err != nil {
					im.logger.Warn("video import failed", "source", src, "error", err)
					events <- ports.ImportEvent{
						Kind: ports.ImportItemError, Index: idx, Total: total, Source: src,
						Message: fmt.Sprintf("%s: %v", name, err), Err: err,
					}
					return nil
				}

				results[i] = res
				im.logger.Info("video extracted", "source", src, "frames", res.FrameCount, "dir", res.FramesDir)
				events <- ports.ImportEvent{
					Kind: ports.ImportProgress, Index: idx, Total: total, Source: src,
					Message: fmt.Sprintf("Extracted %s (%d/%d)", name, idx, total),
				}
				return nil
			})
		}
		_ = g.Wait()

		var done []ports.ImportResult
		for _, r := range results {
			if r != nil {
				done = append(done, *r)
			}
		}
		events <- ports.ImportEvent{
			Kind: ports.ImportFinished, Index: total, Total: total, Results: done,
			Message: fmt.Sprintf("Imported %d of %d videos", len(done), total),
		}
	}()

	return events
}

func (im *Importer) extract(ctx context.Context, src string, req ports.ImportRequest) (*ports.ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &application.ExtractionError{Source: src, Err: err}
	}
	if _, err := os.Stat(src); err != nil {
		return nil, &application.ExtractionError{Source: src, Err: err}
	}

	outDir, err := im.reserveDir(req.DestRoot, domain.SafeStem(src))
	if err != nil {
		return nil, &application.ExtractionError{Source: src, Err: err}
	}

	cmd := exec.CommandContext(ctx, im.ffmpeg, FFmpegArgs(src, outDir, req.Quality, req.Threads)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		os.RemoveAll(outDir)
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			return nil, &application.ExtractionError{Source: src, Err: err}
		}
		return nil, &application.ExtractionError{Source: src, Err: fmt.Errorf("%w: %s", err, msg)}
	}

	count, err := countFrames(outDir)
	if err != nil {
		return nil, &application.ExtractionError{Source: src, Err: err}
	}
	if count == 0 {
		os.RemoveAll(outDir)
		return nil, &application.ExtractionError{Source: src, Err: errors.New("no frames extracted")}
	}

	abs, err := filepath.Abs(outDir)
	if err != nil {
		abs = outDir
	}
	return &ports.ImportResult{
		SourcePath: src,
		FramesDir:  abs,
		FrameCount: count,
		FPS:        im.probeFPS(ctx, src),
	}, nil
}

// reserveDir creates <root>/<base> or the first free <root>/<base>_<n>
func (im *Importer) reserveDir(root, base string) (string, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("failed to create frames root: %w", err)
	}
	candidate := filepath.Join(root, base)
	for n := 1; ; n++ {
		err := os.Mkdir(candidate, 0755)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("failed to create frames directory: %w", err)
		}
		candidate = filepath.Join(root, fmt.Sprintf("%s_%d", base, n))
	}
}

// FFmpegArgs builds the extraction command line; frames are numbered from 0
func FFmpegArgs(src, outDir string, quality, threads int) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-q:v", strconv.Itoa(quality),
		"-start_number", "0",
		"-threads", strconv.Itoa(max(1, threads)),
		filepath.Join(outDir, "%05d.jpg"),
	}
}

// probeFPS returns nil when ffprobe is missing or its answer cannot be parsed
func (im *Importer) probeFPS(ctx context.Context, src string) *float64 {
	if _, err := exec.LookPath(im.ffprobe); err != nil {
		return nil
	}
	cmd := exec.CommandContext(ctx, im.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate",
		"-of", "default=nw=1:nk=1",
		src,
	)
	output, err := cmd.Output()
	if err != nil {
		im.logger.Debug("ffprobe failed", "source", src, "error", err)
		return nil
	}
	fps, err := ParseFrameRate(string(output))
	if err != nil {
		im.logger.Debug("unparseable frame rate", "source", src, "error", err)
		return nil
	}
	return &fps
}

// ParseFrameRate parses ffprobe's "num/den" or plain decimal frame rate
func ParseFrameRate(s string) (float64, error) {
	s = strings.TrimSpace(strings.SplitN(strings.TrimSpace(s), "\n", 2)[0])
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f <= 0 {
			return 0, fmt.Errorf("invalid frame rate %q", s)
		}
		return f, nil
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 || n <= 0 {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	return n / d, nil
}

func countFrames(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read frames directory: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && domain.IsImageFile(e.Name()) {
			n++
		}
	}
	return n, nil
}
