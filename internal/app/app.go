package app

import (
	"io"
	"log/slog"

	"github.com/firmware-grid/fwplan/internal/backend"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW   io.Writer
	logW   io.Writer
	logger *slog.Logger
	config *Config

	// Builder and Tester are the backend collaborators. When nil, Run
	// wires the command-template backends from the configuration. Tests
	// inject fakes here.
	Builder backend.Builder
	Tester  backend.Tester
}

// NewApp is the constructor for the main application. Plan output and the
// run summary go to outW; logs go to logW so machine-readable output stays
// separable from diagnostics.
func NewApp(outW, logW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logW:   logW,
		logger: logger,
		config: config,
	}
}

// Config returns the application's configuration. Primarily for testing.
func (a *App) Config() *Config {
	return a.config
}
