package handler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/config"
	"github.com/pseudomuto/mach/pkg/failure"
	"github.com/pseudomuto/mach/pkg/logging"
	"github.com/pseudomuto/mach/pkg/process"
	"github.com/pseudomuto/mach/pkg/shell"
)

// LoggerName is the name attached to records logged through a Base.
const LoggerName = "mach.handler"

// detectShell runs shell detection once per process. A failed detection is
// not fatal; it only matters to commands that need a unix environment.
var detectShell = sync.OnceValue(func() shell.Environment {
	env, _ := shell.Detect(os.Getenv)
	return env
})

type (
	// Base holds what every command provider needs to do its work.
	Base struct {
		Cwd        string
		Settings   config.Settings
		LogManager *logging.Manager
		Logger     *slog.Logger
		Env        shell.Environment
		Runner     process.Runner

		// Environ returns the environment child processes inherit
		Environ func() []string
	}

	// RunOptions configures RunCommand.
	RunOptions struct {
		// Args holds the program followed by its arguments
		Args []string

		// Dir overrides the working directory of the process
		Dir string

		// AppendEnv is added on top of the inherited environment
		AppendEnv map[string]string

		// ExplicitEnv replaces the environment entirely when set
		ExplicitEnv map[string]string

		// LogName, when set, logs every output line under that action
		LogName string

		// LogLevel is the level output lines are logged at (default INFO)
		LogLevel slog.Level

		// LineHandler is called for every output line
		LineHandler func(line string)

		// RequireUnixEnvironment runs the command through a unix shell when
		// the host is msys
		RequireUnixEnvironment bool

		// IgnoreErrors returns non-zero exit statuses instead of failing
		IgnoreErrors bool

		// IgnoreChildren is passed on to the process runner
		IgnoreChildren bool

		// Encoding of the process output (default utf-8)
		Encoding string
	}

	// ExecError is returned by RunCommand when a process exits with a
	// non-zero status and errors aren't ignored.
	ExecError struct {
		Args   []string
		Status int
	}
)

// New returns a Base for cwd. Shell detection, the process runner and the
// environment default to the real ones.
func New(cwd string, settings config.Settings, lm *logging.Manager) *Base {
	if settings == nil {
		settings = config.Settings{}
	}

	if lm == nil {
		lm = logging.New()
	}

	return &Base{
		Cwd:        cwd,
		Settings:   settings,
		LogManager: lm,
		Logger:     lm.Logger(LoggerName),
		Env:        detectShell(),
		Runner:     process.Exec{},
		Environ:    os.Environ,
	}
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("Process executed with non-0 exit code: %q", e.Args)
}

// Log records a structured event. format may reference params by {name}.
func (b *Base) Log(level slog.Level, action string, params map[string]any, format string) {
	logging.Log(b.Logger, level, action, params, format)
}

// NormalizeCommand adjusts args so they run in the environment the command
// needs. See shell.Environment.Normalize.
func (b *Base) NormalizeCommand(args []string, requireUnix bool) ([]string, error) {
	return b.Env.Normalize(args, requireUnix)
}

// RunCommand runs a process to completion and returns its exit status.
//
// Errors from running the process, as well as a non-zero status when
// IgnoreErrors is false, are tagged as coming from outside the calling
// command (see failure.Delegate).
func (b *Base) RunCommand(ctx context.Context, opts RunOptions) (int, error) {
	args, err := b.NormalizeCommand(opts.Args, opts.RequireUnixEnvironment)
	if err != nil {
		return 0, failure.Delegate(errors.Wrap(err, "failed to normalize command"))
	}

	b.Log(slog.LevelInfo, "process", map[string]any{"args": args}, strings.Join(args, " "))

	env := b.environment(opts)
	b.Log(slog.LevelDebug, "process", map[string]any{"env": env}, "Environment: {env}")

	onLine := func(line string) {
		if opts.LineHandler != nil {
			opts.LineHandler(line)
		}

		if opts.LogName == "" {
			return
		}

		b.Log(opts.LogLevel, opts.LogName, map[string]any{"line": strings.TrimSpace(line)}, "{line}")
	}

	status, err := b.runner().Run(ctx, process.Spec{
		Args:           args,
		Dir:            opts.Dir,
		Env:            environList(env),
		OnLine:         onLine,
		Encoding:       opts.Encoding,
		IgnoreChildren: opts.IgnoreChildren,
	})
	if err != nil {
		return status, failure.Delegate(errors.Wrapf(err, "failed to run %s", args[0]))
	}

	if status != 0 && !opts.IgnoreErrors {
		return status, failure.Delegate(&ExecError{Args: args, Status: status})
	}

	return status, nil
}

func (b *Base) runner() process.Runner {
	if b.Runner == nil {
		return process.Exec{}
	}

	return b.Runner
}

// environment merges the inherited environment with opts. An explicit
// environment wins outright.
func (b *Base) environment(opts RunOptions) map[string]string {
	if len(opts.ExplicitEnv) > 0 {
		env := make(map[string]string, len(opts.ExplicitEnv))
		for k, v := range opts.ExplicitEnv {
			env[k] = v
		}

		return env
	}

	env := make(map[string]string)
	if b.Environ != nil {
		for _, kv := range b.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				env[k] = v
			}
		}
	}

	for k, v := range opts.AppendEnv {
		env[k] = v
	}

	return env
}

func environList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}

	sort.Strings(out)
	return out
}
