package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"tracewave/internal/bootstrap"
	"tracewave/internal/config"
	"tracewave/internal/logging"
)

var (
	cfg         *config.Config
	projectPath string
	logLevel    string
	logger      *slog.Logger
	opened      *bootstrap.Runtime
)

var rootCmd = &cobra.Command{
	Use:   "tracewave-cli",
	Short: "CLI for annotating video frames",
	Long: `tracewave-cli is a command-line interface for TraceWave projects.

It creates projects, imports videos as frame sequences, adds point and box
prompts to objects, runs segmentation and exports the prompts per video.

The project is the current directory unless --project or TRACEWAVE_PROJECT
names another one.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger = logging.New(os.Stderr, level)

		if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		})); err != nil {
			logger.Warn("failed to set GOMAXPROCS", "error", err)
		}

		cfg.ProjectPath = projectPath
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if opened == nil {
			return nil
		}
		err := opened.Close()
		opened = nil
		return err
	},
}

// Execute runs the root command
func Execute() {
	if err := load(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		if opened != nil {
			_ = opened.Close()
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func load() error {
	var err error
	if cfg, err = config.Load(); err != nil {
		return err
	}
	rootCmd.PersistentFlags().StringVarP(&projectPath, "project", "p", cfg.ProjectPath, "project directory or project.json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	return nil
}

// GetRuntime opens the project on first use. Pending changes are saved when
// the command finishes.
func GetRuntime() (*bootstrap.Runtime, error) {
	if opened != nil {
		return opened, nil
	}
	rt, err := bootstrap.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	opened = rt
	return rt, nil
}
