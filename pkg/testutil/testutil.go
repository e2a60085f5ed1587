package testutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/mach/pkg/config"
	"github.com/pseudomuto/mach/pkg/consts"
	"github.com/pseudomuto/mach/pkg/handler"
	"github.com/pseudomuto/mach/pkg/logging"
	"github.com/pseudomuto/mach/pkg/shell"
	"github.com/stretchr/testify/require"
)

// BaseFixture is a handler.Base that runs nothing and logs to a buffer.
type BaseFixture struct {
	Base   *handler.Base
	Runner *RecordingRunner
	Logs   *bytes.Buffer
}

// NewBase returns a fixture rooted at cwd with a fixed environment, a
// recording runner and a JSON log sink at debug level.
func NewBase(t *testing.T, cwd string) *BaseFixture {
	t.Helper()

	logs := new(bytes.Buffer)
	lm := logging.New()
	lm.AddJSONHandler(logs)

	runner := new(RecordingRunner)
	base := handler.New(cwd, config.Settings{}, lm)
	base.Runner = runner
	base.Env = shell.Environment{Shell: "/bin/sh"}
	base.Environ = func() []string { return []string{"HOME=/home/mach", "PATH=/usr/bin:/bin"} }

	return &BaseFixture{Base: base, Runner: runner, Logs: logs}
}

// Factory returns a function handing out the fixture's Base, for places that
// construct a fresh Base per invocation.
func (f *BaseFixture) Factory() func() *handler.Base {
	return func() *handler.Base { return f.Base }
}

// NewLogManager returns a log manager writing terminal output at level to a
// buffer.
func NewLogManager(level slog.Level) (*logging.Manager, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	lm := logging.New()
	lm.AddTerminalLogging(buf, level, false)

	return lm, buf
}

// WriteFiles creates files (path relative to dir -> contents) under dir,
// creating parent directories as needed.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for path, content := range files {
		full := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), consts.ModeDir), "Failed to create directory for: %s", path)
		require.NoError(t, os.WriteFile(full, []byte(content), consts.ModeFile), "Failed to write file: %s", path)
	}
}
