package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultProjectPath is used when neither a flag nor TRACEWAVE_PROJECT names a project
const DefaultProjectPath = "."

// Config is read from TRACEWAVE_* environment variables
type Config struct {
	ProjectPath string `env:"TRACEWAVE_PROJECT" envDefault:"."`

	OracleCommand string `env:"TRACEWAVE_ORACLE_CMD" envDefault:"sam2-predict"`

	FFmpeg        string `env:"TRACEWAVE_FFMPEG"         envDefault:"ffmpeg"`
	FFprobe       string `env:"TRACEWAVE_FFPROBE"        envDefault:"ffprobe"`
	ImportQuality int    `env:"TRACEWAVE_IMPORT_QUALITY" envDefault:"2"`
	ImportThreads int    `env:"TRACEWAVE_IMPORT_THREADS" envDefault:"4"`
	ImportWorkers int    `env:"TRACEWAVE_IMPORT_WORKERS" envDefault:"1"`

	AutosaveMS int `env:"TRACEWAVE_AUTOSAVE_MS" envDefault:"800"`

	LogLevel string `env:"TRACEWAVE_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"TRACEWAVE_LOG_FILE"`

	Editor string `env:"TRACEWAVE_EDITOR"`

	NoIndex bool `env:"TRACEWAVE_NO_INDEX" envDefault:"false"`
}

// Load parses the environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if cfg.AutosaveMS <= 0 {
		return nil, fmt.Errorf("TRACEWAVE_AUTOSAVE_MS must be positive, got %d", cfg.AutosaveMS)
	}
	return cfg, nil
}

// AutosaveDelay returns the autosave debounce as a duration
func (c *Config) AutosaveDelay() time.Duration {
	return time.Duration(c.AutosaveMS) * time.Millisecond
}

// ImportSettings are the extraction defaults offered when importing videos
type ImportSettings struct {
	Quality int
	Threads int
	Workers int
}

// Import returns the configured extraction defaults
func (c *Config) Import() ImportSettings {
	return ImportSettings{Quality: c.ImportQuality, Threads: c.ImportThreads, Workers: c.ImportWorkers}
}

// DescriptorPath resolves the project path, expanding ~ and accepting a
// directory or a project.json path
func (c *Config) DescriptorPath() string {
	return ExpandHome(c.ProjectPath)
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// DefaultLogFile is where the TUI logs, since stderr belongs to the terminal UI
func DefaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "tracewave", "tracewave.log")
}
