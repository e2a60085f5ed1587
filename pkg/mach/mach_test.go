package mach_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/failure"
	"github.com/pseudomuto/mach/pkg/handler"
	. "github.com/pseudomuto/mach/pkg/mach"
	"github.com/pseudomuto/mach/pkg/registry"
	"github.com/stretchr/testify/require"
)

const (
	commandBanner   = "The error occurred in the implementation of the invoked mach command."
	moduleBanner    = "The error occured in code that was called by the mach command."
	frameworkBanner = "The error occurred in mach itself."
	footer          = "The details of the failure are as follows:"
)

type (
	fixture struct {
		mach   *Mach
		stdout *bytes.Buffer
		stderr *bytes.Buffer
	}

	locator struct {
		*handler.Base
	}
)

func (l *locator) Pwd() {
	l.Log(slog.LevelInfo, "pwd", map[string]any{"cwd": l.Cwd}, "in {cwd}")
}

func (l *locator) Debug() int {
	l.Log(slog.LevelDebug, "debug", nil, "debugging")
	return 0
}

func newFixture(t *testing.T, commands map[string]any) *fixture {
	t.Helper()

	r := registry.New()
	for name, fn := range commands {
		require.NoError(t, registry.RegisterFunc(r, registry.Command(name, "Run "+name+"."), fn))
	}

	require.NoError(t, registry.Provide(r, "locator", func(b *handler.Base) *locator {
		return &locator{Base: b}
	}, map[string]*registry.Declaration{
		"Pwd":   registry.Command("pwd", "Print the working directory."),
		"Debug": registry.Command("debug", "Log at debug level."),
	}))

	f := &fixture{stdout: new(bytes.Buffer), stderr: new(bytes.Buffer)}
	f.mach = New(Params{
		Cwd:      "/work",
		Registry: r,
		Stdout:   f.stdout,
		Stderr:   f.stderr,
	})

	t.Cleanup(func() { _ = f.mach.LogManager.Close() })
	return f
}

func (f *fixture) run(argv ...string) int {
	return f.mach.Run(context.Background(), argv)
}

func TestRunUsageAndHelp(t *testing.T) {
	f := newFixture(t, map[string]any{"build": func() {}})

	t.Run("no arguments", func(t *testing.T) {
		f.stdout.Reset()
		require.Equal(t, 0, f.run())

		var want bytes.Buffer
		require.NoError(t, f.mach.Grammar().WriteUsage(&want))
		require.Equal(t, want.String(), f.stdout.String())
		require.True(t, strings.HasPrefix(f.stdout.String(), "usage: mach [global arguments] command [command arguments]"))
	})

	t.Run("help", func(t *testing.T) {
		f.stdout.Reset()
		require.Equal(t, 0, f.run("help"))
		require.Equal(t, f.mach.Grammar().Help(), f.stdout.String())
	})

	t.Run("help flag", func(t *testing.T) {
		f.stdout.Reset()
		require.Equal(t, 0, f.run("--help"))
		require.Equal(t, f.mach.Grammar().Help(), f.stdout.String())
	})

	t.Run("globals without a command", func(t *testing.T) {
		f.stdout.Reset()
		require.Equal(t, 0, f.run("-v"))
		require.Equal(t, f.mach.Grammar().Help(), f.stdout.String())
	})

	t.Run("command help", func(t *testing.T) {
		f.stdout.Reset()
		require.Equal(t, 0, f.run("build", "--help"))

		want, err := f.mach.Grammar().CommandHelp("build")
		require.NoError(t, err)
		require.Equal(t, want, f.stdout.String())
	})
}

func TestRunInvalidCommand(t *testing.T) {
	f := newFixture(t, map[string]any{"build": func() {}})

	require.Equal(t, []string{"build", "debug", "pwd"}, f.mach.Grammar().Commands())

	for _, argv := range [][]string{{"biuld"}, {"Build"}, {"-v", "flash", "gaia"}} {
		f.stdout.Reset()

		require.Equal(t, 1, f.run(argv...), argv)
		require.Equal(t,
			"Invalid command specified. The list of commands is below.\n\n"+f.mach.Grammar().Help(),
			f.stdout.String(),
		)
	}
}

func TestRunUsageError(t *testing.T) {
	f := newFixture(t, map[string]any{"build": func() {}})

	t.Run("command", func(t *testing.T) {
		require.Equal(t, 1, f.run("build", "extra"))
		require.Equal(t, "usage: mach build [-h]\nmach build: error: unrecognized arguments: extra\n", f.stderr.String())
		require.Empty(t, f.stdout.String())
	})

	t.Run("log file", func(t *testing.T) {
		f.stderr.Reset()
		path := filepath.Join(t.TempDir(), "missing", "mach.log")

		require.Equal(t, 1, f.run("--log-file", path, "build"))
		require.Contains(t, f.stderr.String(), "mach: error: argument -l/--log-file: can't open '"+path+"'")
	})
}

func TestRunExitCodes(t *testing.T) {
	f := newFixture(t, map[string]any{
		"nothing": func() {},
		"three":   func() int { return 3 },
		"truthy":  func() bool { return true },
		"falsy":   func() (string, error) { return "", nil },
		"bogus":   func() string { return "done" },
	})

	require.Equal(t, 0, f.run("nothing"))
	require.Equal(t, 3, f.run("three"))
	require.Equal(t, 1, f.run("truthy"))
	require.Equal(t, 0, f.run("falsy"))
	require.Empty(t, f.stdout.String())

	require.Equal(t, 1, f.run("bogus"))
	out := f.stdout.String()
	require.Contains(t, out, "Error running mach:\n\n    [\"bogus\"]\n\n")
	require.Contains(t, out, frameworkBanner)
	require.Contains(t, out, "command bogus: handler returned string, expected an integer exit code")
}

func TestRunStripsReservedArguments(t *testing.T) {
	var got registry.Args

	r := registry.New()
	decl := registry.Command("capture", "Capture arguments.").
		Argument(registry.ArgumentSpec{Flags: []string{"--name"}}).
		Argument(registry.ArgumentSpec{Flags: []string{"--verbose-output"}, Action: registry.StoreTrue})
	require.NoError(t, registry.RegisterFunc(r, decl, func(args registry.Args) { got = args }))

	var stdout bytes.Buffer
	m := New(Params{Cwd: "/work", Registry: r, Stdout: &stdout, Stderr: &stdout})
	t.Cleanup(func() { _ = m.LogManager.Close() })

	logFile := filepath.Join(t.TempDir(), "mach.log")
	code := m.Run(context.Background(), []string{"-v", "-l", logFile, "--log-interval", "capture", "--name", "x"})
	require.Equal(t, 0, code)
	require.Equal(t, registry.Args{"name": "x", "verbose_output": false}, got)

	for _, key := range Reserved {
		require.NotContains(t, got, key)
	}

	_, err := os.Stat(logFile)
	require.NoError(t, err)
}

func TestRunLogging(t *testing.T) {
	f := newFixture(t, nil)

	require.Equal(t, 0, f.run("pwd"))
	require.Contains(t, f.stdout.String(), "in /work\n")

	f.stdout.Reset()
	require.Equal(t, 0, f.run("debug"))
	require.NotContains(t, f.stdout.String(), "debugging")

	require.Equal(t, 0, f.run("--verbose", "debug"))
	require.Contains(t, f.stdout.String(), "debugging\n")
}

func TestRunLogFile(t *testing.T) {
	f := newFixture(t, nil)
	logFile := filepath.Join(t.TempDir(), "mach.log")

	require.Equal(t, 0, f.run("--log-file", logFile, "pwd"))
	f.mach.Log(slog.LevelInfo, "done", map[string]any{"n": 1}, "done {n}")
	require.NoError(t, f.mach.LogManager.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], `"action":"pwd"`)
	require.Contains(t, lines[0], `"msg":"in /work"`)
	require.Contains(t, lines[1], `"logger":"mach"`)
	require.Contains(t, lines[1], `"msg":"done 1"`)
}

func failInHandler() {
	panic("handler bug")
}

func TestRunClassifiesFailures(t *testing.T) {
	tests := []struct {
		name    string
		fn      any
		banner  string
		summary string
		frames  []string
	}{
		{
			name:    "panic in the command",
			fn:      failInHandler,
			banner:  commandBanner,
			summary: "panic: handler bug",
			frames:  []string{"mach_test.failInHandler"},
		},
		{
			name:    "error from the command",
			fn:      func() error { return errors.New("boom") },
			banner:  commandBanner,
			summary: "boom",
		},
		{
			name:    "panic in called code",
			fn:      func() { _ = strings.Repeat("x", -1) },
			banner:  moduleBanner,
			summary: "panic: strings: negative Repeat count",
			frames:  []string{"in strings.Repeat"},
		},
		{
			name:    "delegated error",
			fn:      func() error { return failure.Delegate(errors.New("downstream")) },
			banner:  moduleBanner,
			summary: "downstream",
		},
		{
			name:    "failed process",
			fn:      func(ctx context.Context, b *handler.Base) (int, error) { return b.RunCommand(ctx, handler.RunOptions{}) },
			banner:  moduleBanner,
			summary: "failed to normalize command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]any{"fail": tt.fn})

			require.Equal(t, 1, f.run("fail"))

			out := f.stdout.String()
			require.True(t, strings.HasPrefix(out, "Error running mach:\n\n    [\"fail\"]\n\n"+tt.banner), out)
			require.Contains(t, out, footer+"\n\n"+tt.summary)
			require.NotContains(t, out, frameworkBanner)
			require.NotContains(t, out, "(*Dispatcher).invoke")

			for _, frame := range tt.frames {
				require.Contains(t, out, frame)
			}
		})
	}
}

func TestRunFrameworkFailure(t *testing.T) {
	r := registry.New()
	require.NoError(t, registry.Provide(r, "broken", func(*handler.Base) *locator {
		panic("no locator")
	}, map[string]*registry.Declaration{
		"Pwd": registry.Command("pwd", "Print the working directory."),
	}))

	var stdout bytes.Buffer
	m := New(Params{Registry: r, Stdout: &stdout})
	t.Cleanup(func() { _ = m.LogManager.Close() })

	require.Equal(t, 1, m.Run(context.Background(), []string{"pwd"}))
	require.Contains(t, stdout.String(), frameworkBanner)
	require.Contains(t, stdout.String(), "panic: no locator")
}

func TestRunInterrupt(t *testing.T) {
	t.Run("from the command", func(t *testing.T) {
		f := newFixture(t, map[string]any{
			"wait": func(ctx context.Context) error { return errors.Wrap(context.Canceled, "waiting") },
		})

		require.Equal(t, 1, f.run("wait"))
		require.Equal(t, "mach interrupted by signal or user action. Stopping.\n", f.stdout.String())
	})

	t.Run("before parsing", func(t *testing.T) {
		f := newFixture(t, map[string]any{"build": func() {}})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		code := f.mach.Run(ctx, []string{"build"})
		require.Equal(t, 1, code)
		require.NotContains(t, f.stdout.String(), "Error running mach")
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		result any
		code   int
		err    bool
	}{
		{result: nil, code: 0},
		{result: 0, code: 0},
		{result: 3, code: 3},
		{result: int64(7), code: 7},
		{result: uint8(2), code: 2},
		{result: true, code: 1},
		{result: false, code: 0},
		{result: "", code: 0},
		{result: []string{}, code: 0},
		{result: "done", err: true},
		{result: []string{"x"}, err: true},
		{result: 1.5, err: true},
	}

	for _, tt := range tests {
		code, err := ExitCode(tt.result)
		if tt.err {
			require.Error(t, err, "%#v", tt.result)
			continue
		}

		require.NoError(t, err, "%#v", tt.result)
		require.Equal(t, tt.code, code, "%#v", tt.result)
	}
}
