// Package bootstrap wires the adapters of a project for the binaries
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tracewave/internal/adapters/ffmpeg"
	"tracewave/internal/adapters/filesystem"
	"tracewave/internal/adapters/sam2"
	"tracewave/internal/adapters/sqlite"
	"tracewave/internal/application"
	"tracewave/internal/config"
	"tracewave/internal/ports"
)

// Runtime is an opened project with everything the surfaces need
type Runtime struct {
	Config    *config.Config
	Logger    *slog.Logger
	Workspace *application.Workspace
	Index     ports.AnnotationIndex // nil when disabled or unavailable
	Workflow  *application.Workflow
	Autosaver *application.Autosaver
	Extractor *ffmpeg.Importer
	Exporter  *filesystem.YAMLExporter
}

// Open opens the project named by the configuration
func Open(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	descriptor := cfg.DescriptorPath()

	var index ports.AnnotationIndex
	if !cfg.NoIndex {
		idx := sqlite.NewIndex()
		if err := idx.Open(ProjectRoot(descriptor)); err != nil {
			logger.Warn("annotation index disabled", "error", err)
		} else {
			index = idx
		}
	}

	ws := application.NewWorkspace(application.WorkspaceDeps{
		Projects:    filesystem.NewProjectStore(),
		Annotations: filesystem.NewAnnotationStore(),
		Frames:      filesystem.NewFrameLister(),
		Index:       index,
		Logger:      logger,
	})
	if err := ws.Open(descriptor); err != nil {
		return nil, errors.Join(err, ws.Close())
	}

	p := ws.Project()
	wf := application.NewWorkflow(sam2.FromProject(&p, cfg.OracleCommand, logger), filesystem.NewImageLoader(), logger)
	wf.SetAutoRun(p.Oracle.AutoRun)

	return &Runtime{
		Config:    cfg,
		Logger:    logger,
		Workspace: ws,
		Index:     index,
		Workflow:  wf,
		Autosaver: application.NewAutosaver(ws, cfg.AutosaveDelay(), logger),
		Extractor: ffmpeg.NewImporter(
			ffmpeg.WithFFmpeg(cfg.FFmpeg),
			ffmpeg.WithFFprobe(cfg.FFprobe),
			ffmpeg.WithLogger(logger),
		),
		Exporter: filesystem.NewYAMLExporter(),
	}, nil
}

// Close stops the autosaver, saves pending changes and releases the index
func (r *Runtime) Close() error {
	r.Autosaver.Stop()
	var err error
	if r.Workspace.Dirty() {
		if err = r.Workspace.Save(); err != nil {
			err = fmt.Errorf("failed to save on exit: %w", err)
		}
	}
	return errors.Join(err, r.Workspace.Close())
}

// ProjectRoot returns the project directory of a descriptor path, which may
// name the directory itself or the descriptor file inside it
func ProjectRoot(descriptorPath string) string {
	abs, err := filepath.Abs(descriptorPath)
	if err != nil {
		return descriptorPath
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return abs
	}
	return filepath.Dir(abs)
}
