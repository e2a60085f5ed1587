package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

type clock struct {
	mu    sync.Mutex
	start time.Time
	last  time.Time
	now   func() time.Time
}

// elapsed returns the time since start, or since the previous call when
// interval is set.
func (c *clock) elapsed(interval bool) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now()
	since := c.start
	if interval {
		since = c.last
	}

	c.last = t
	return t.Sub(since)
}

// terminalHandler prints only the formatted message; structured attrs are
// left to the JSON sinks.
type terminalHandler struct {
	w        io.Writer
	level    slog.Level
	interval bool
	clock    *clock
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	_, err := fmt.Fprintf(h.w, "%s %s\n", formatElapsed(h.clock.elapsed(h.interval)), r.Message)
	return err
}

func (h *terminalHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *terminalHandler) WithGroup(string) slog.Handler { return h }

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	mins := int(d / time.Minute)
	secs := (d - time.Duration(mins)*time.Minute).Seconds()

	return fmt.Sprintf("%2d:%05.2f", mins, secs)
}
