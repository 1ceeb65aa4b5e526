// Package config builds the stretchcam runtime configuration from defaults
// and STRETCH_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ayusman/stretchcam/internal/relay"
)

// Default runtime configuration.
const (
	DefaultExercise = "side"
	DefaultCamera   = 0
	DefaultAddr     = ":8080"
	DefaultLogLevel = "info"
	DefaultFPS      = 15
)

// Environment variables read by Load.
const (
	EnvExercise = "STRETCH_EXERCISE"
	EnvCamera   = "STRETCH_CAMERA"
	EnvAddr     = "STRETCH_ADDR"
	EnvDataDir  = "STRETCH_DATA_DIR"
	EnvLogLevel = "STRETCH_LOG_LEVEL"
)

// Config holds the runtime settings of the stretchcam command.
type Config struct {
	Exercise string
	CameraID int
	Addr     string
	DataDir  string
	LogLevel string
	FPS      int
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Exercise: DefaultExercise,
		CameraID: DefaultCamera,
		Addr:     DefaultAddr,
		DataDir:  DefaultDataDir(),
		LogLevel: DefaultLogLevel,
		FPS:      DefaultFPS,
	}
}

// DefaultDataDir returns ~/.stretchcam, or .stretchcam in the working
// directory when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stretchcam"
	}
	return filepath.Join(home, ".stretchcam")
}

// Load returns the default settings overridden by any STRETCH_* variables
// that are set.
func Load() (Config, error) {
	cfg := DefaultConfig()
	cfg.Exercise = env(EnvExercise, cfg.Exercise)
	cfg.Addr = env(EnvAddr, cfg.Addr)
	cfg.DataDir = env(EnvDataDir, cfg.DataDir)
	cfg.LogLevel = env(EnvLogLevel, cfg.LogLevel)

	if v := os.Getenv(EnvCamera); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s %q: %w", EnvCamera, v, err)
		}
		cfg.CameraID = id
	}
	return cfg, nil
}

// StorePath returns the SQLite database location inside the data directory.
func (c Config) StorePath() string {
	return filepath.Join(c.DataDir, "stretchcam.db")
}

// RelayPath returns the score relay file location inside the data directory.
func (c Config) RelayPath() string {
	return filepath.Join(c.DataDir, relay.DefaultFile)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
