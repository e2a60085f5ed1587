package mach

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/pseudomuto/mach/pkg/config"
	"github.com/pseudomuto/mach/pkg/consts"
	"github.com/pseudomuto/mach/pkg/failure"
	"github.com/pseudomuto/mach/pkg/grammar"
	"github.com/pseudomuto/mach/pkg/handler"
	"github.com/pseudomuto/mach/pkg/logging"
	"github.com/pseudomuto/mach/pkg/registry"
)

// LoggerName is the name of mach's own logger.
const LoggerName = "mach"

type (
	// Params configures a Mach. Zero values get sensible defaults: os.Stdout,
	// os.Stderr and a new log manager.
	Params struct {
		Cwd        string
		Prog       string
		Registry   *registry.Registry
		Settings   config.Settings
		LogManager *logging.Manager
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// Mach is the command-line interface.
	Mach struct {
		Cwd        string
		Settings   config.Settings
		LogManager *logging.Manager

		stdout     io.Writer
		logger     *slog.Logger
		dispatcher *Dispatcher
	}
)

// New returns a Mach dispatching the commands registered in p.Registry.
func New(p Params) *Mach {
	if p.Prog == "" {
		p.Prog = consts.ProgramName
	}

	if p.Registry == nil {
		p.Registry = registry.New()
	}

	if p.LogManager == nil {
		p.LogManager = logging.New()
	}

	if p.Stdout == nil {
		p.Stdout = os.Stdout
	}

	if p.Stderr == nil {
		p.Stderr = os.Stderr
	}

	m := &Mach{
		Cwd:        p.Cwd,
		Settings:   p.Settings,
		LogManager: p.LogManager,
		stdout:     p.Stdout,
		logger:     p.LogManager.Logger(LoggerName),
	}

	m.dispatcher = NewDispatcher(
		grammar.Build(p.Prog, p.Registry.All()),
		p.LogManager,
		m.newBase,
		p.Stdout,
		p.Stderr,
	)

	return m
}

// Run runs the invocation argv (without the program name) and returns the
// exit code to exit with. 0 means success.
func (m *Mach) Run(ctx context.Context, argv []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			code = m.frameworkError(argv, failure.Recovered(r))
		}
	}()

	code, err := m.dispatcher.Run(ctx, argv)
	if err == nil {
		return code
	}

	if failure.IsInterrupt(err) {
		_, _ = io.WriteString(m.stdout, interrupted)
		return 1
	}

	return m.frameworkError(argv, err)
}

// Log records a structured event on mach's logger.
func (m *Mach) Log(level slog.Level, action string, params map[string]any, format string) {
	logging.Log(m.logger, level, action, params, format)
}

// Grammar returns the grammar invocations are parsed with.
func (m *Mach) Grammar() *grammar.Grammar {
	return m.dispatcher.Grammar
}

func (m *Mach) newBase() *handler.Base {
	return handler.New(m.Cwd, m.Settings, m.LogManager)
}

func (m *Mach) frameworkError(argv []string, err error) int {
	m.Log(slog.LevelDebug, "framework_error", map[string]any{"error": err.Error()}, "{error}")
	writeReport(m.stdout, argv, m.dispatcher.classifier.Framework(err))
	return 1
}
