package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tracewave/internal/adapters/editor"
	"tracewave/internal/adapters/tui"
	"tracewave/internal/adapters/viewer"
	"tracewave/internal/bootstrap"
	"tracewave/internal/config"
	"tracewave/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flag.StringVar(&cfg.ProjectPath, "project", cfg.ProjectPath, "project directory or project.json")
	flag.Parse()

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = config.DefaultLogFile()
	}
	// stderr belongs to the terminal UI
	logger, closer, err := logging.NewFile(logFile, level)
	if err != nil {
		return err
	}
	defer closer.Close()

	rt, err := bootstrap.Open(cfg, logger)
	if err != nil {
		return err
	}

	app := tui.NewApp(tui.Deps{
		Workspace: rt.Workspace,
		Workflow:  rt.Workflow,
		Autosaver: rt.Autosaver,
		Extractor: rt.Extractor,
		Exporter:  rt.Exporter,
		Index:     rt.Index,
		Viewer:    viewer.NewOpener(),
		Editor:    editor.NewOpener(cfg.Editor),
		Import:    cfg.Import(),
		Logger:    logger,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	_, runErr := p.Run()
	if err := rt.Close(); err != nil {
		logger.Error("shutdown", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
