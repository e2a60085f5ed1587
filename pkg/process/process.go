package process

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is used when a Spec doesn't name one.
const DefaultEncoding = "utf-8"

type (
	// Runner runs a process described by a Spec and returns its exit status.
	Runner interface {
		Run(ctx context.Context, spec Spec) (int, error)
	}

	// Spec describes a single process invocation.
	Spec struct {
		// Args holds the program followed by its arguments
		Args []string

		// Dir is the working directory; empty means the current one
		Dir string

		// Env is the complete environment in KEY=VALUE form
		Env []string

		// OnLine is called for every line of output, without the trailing newline
		OnLine func(line string)

		// Encoding names the output encoding (any WHATWG label, e.g. "utf-8",
		// "latin1", "windows-1252")
		Encoding string

		// IgnoreChildren leaves processes spawned by the child alone on
		// cancellation. When false the child runs in its own process group
		// (where supported) and the whole group is killed.
		IgnoreChildren bool
	}

	// Exec runs processes with os/exec.
	Exec struct{}
)

// Run starts the process, streams its output and waits for it to exit.
//
// A non-zero exit status is not an error; callers decide what it means.
// Cancelling ctx kills the process and Run returns ctx.Err().
func (Exec) Run(ctx context.Context, spec Spec) (int, error) {
	if len(spec.Args) == 0 {
		return 0, errors.New("no command given")
	}

	name := spec.Encoding
	if name == "" {
		name = DefaultEncoding
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return 0, errors.Wrapf(err, "unsupported output encoding: %s", name)
	}

	cmd := exec.CommandContext(ctx, spec.Args[0], spec.Args[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	if !spec.IgnoreChildren {
		trackChildren(cmd)
	}

	out, err := cmd.StdoutPipe()
	if err != nil {
		return 0, errors.Wrap(err, "failed to create output pipe")
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return 0, errors.Wrapf(err, "failed to start: %s", strings.Join(spec.Args, " "))
	}

	scanErr := streamLines(enc.NewDecoder().Reader(out), spec.OnLine)
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return exitCode(waitErr), ctx.Err()
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return 0, errors.Wrap(waitErr, "failed waiting for process")
		}
	}

	if scanErr != nil {
		return exitCode(waitErr), errors.Wrap(scanErr, "failed reading process output")
	}

	return exitCode(waitErr), nil
}

func streamLines(r io.Reader, onLine func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		if onLine != nil {
			onLine(strings.TrimSuffix(scanner.Text(), "\r"))
		}
	}

	// keep draining so the child never blocks on a full pipe
	if err := scanner.Err(); err != nil {
		_, _ = io.Copy(io.Discard, r)
		return err
	}

	return nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
	}

	return 1
}
