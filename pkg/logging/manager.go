package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/consts"
)

// Manager owns the log sinks for a mach process.
type Manager struct {
	mu       sync.RWMutex
	start    time.Time
	now      func() time.Time
	terminal slog.Handler
	sinks    []slog.Handler
	closers  []io.Closer
}

// New creates a manager with no sinks attached.
func New() *Manager {
	return &Manager{start: time.Now(), now: time.Now}
}

// Handler returns a slog.Handler that routes records to every attached sink.
func (m *Manager) Handler() slog.Handler {
	return &fanout{m: m}
}

// Logger returns a logger tagged with the given name.
func (m *Manager) Logger(name string) *slog.Logger {
	return slog.New(m.Handler()).With(slog.String("logger", name))
}

// AddTerminalLogging attaches (or replaces) the terminal sink writing to w.
// Records below level are dropped. When writeInterval is true each line is
// prefixed with the time since the previous record instead of the time since
// start-up.
func (m *Manager) AddTerminalLogging(w io.Writer, level slog.Level, writeInterval bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.terminal = &terminalHandler{
		w:        w,
		level:    level,
		interval: writeInterval,
		clock:    &clock{start: m.start, last: m.start, now: m.now},
	}
}

// AddJSONHandler attaches a sink that writes one JSON record per line to w.
// All levels are recorded.
func (m *Manager) AddJSONHandler(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sinks = append(m.sinks, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// AddJSONFile opens path in append mode and attaches it as a JSON sink. The
// file is closed by Close.
func (m *Manager) AddJSONFile(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, consts.ModeFile)
	if err != nil {
		return errors.Wrapf(err, "failed to open log file: %s", path)
	}

	m.AddJSONHandler(f)

	m.mu.Lock()
	m.closers = append(m.closers, f)
	m.mu.Unlock()

	return nil
}

// Close detaches all sinks and closes any files opened by the manager.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = errors.Wrap(err, "failed to close log sink")
		}
	}

	m.closers = nil
	m.sinks = nil
	m.terminal = nil

	return first
}

func (m *Manager) handlers() []slog.Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hs := make([]slog.Handler, 0, len(m.sinks)+1)
	if m.terminal != nil {
		hs = append(hs, m.terminal)
	}

	return append(hs, m.sinks...)
}

// Log records a structured event on logger. The message is format with its
// {name} placeholders replaced from params.
func Log(logger *slog.Logger, level slog.Level, action string, params map[string]any, format string) {
	logger.LogAttrs(
		context.Background(),
		level,
		Format(format, params),
		slog.String("action", action),
		slog.Any("params", params),
	)
}

// fanout forwards records to the manager's current sinks. Attrs and groups
// added through With are replayed on each sink at handle time.
type fanout struct {
	m   *Manager
	ops []op
}

type op struct {
	group string
	attrs []slog.Attr
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.m.handlers() {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f.m.handlers() {
		if !h.Enabled(ctx, r.Level) {
			continue
		}

		if err := f.derive(h).Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}

	return first
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.with(op{attrs: attrs})
}

func (f *fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}

	return f.with(op{group: name})
}

func (f *fanout) with(o op) *fanout {
	ops := make([]op, len(f.ops), len(f.ops)+1)
	copy(ops, f.ops)
	return &fanout{m: f.m, ops: append(ops, o)}
}

func (f *fanout) derive(h slog.Handler) slog.Handler {
	for _, o := range f.ops {
		if o.group != "" {
			h = h.WithGroup(o.group)
		} else {
			h = h.WithAttrs(o.attrs)
		}
	}

	return h
}
