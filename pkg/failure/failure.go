package failure

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Origin identifies where a failure came from.
type Origin int

const (
	// Command failures come from the invoked handler itself
	Command Origin = iota

	// Module failures come from code the handler called into
	Module

	// Framework failures come from the dispatcher
	Framework
)

func (o Origin) String() string {
	switch o {
	case Command:
		return "command"
	case Module:
		return "module"
	case Framework:
		return "framework"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

type (
	// Frame is a single resolved stack frame.
	Frame struct {
		Function string
		File     string
		Line     int
	}

	// Failure is a classified error.
	Failure struct {
		Origin Origin
		Err    error
		Panic  bool

		// Frames are in traceback order: outermost call first
		Frames []Frame
	}

	// PanicError carries a recovered panic value and the stack it unwound.
	PanicError struct {
		Value  any
		frames []Frame
	}

	// Classifier attributes failures raised below a dispatch boundary.
	Classifier struct {
		// Boundary is the fully qualified name of the function that invokes
		// handlers. Frames from it outward are not considered.
		Boundary string

		// Plumbing lists packages whose frames sit between the boundary and
		// the handler and are ignored. runtime and reflect are always ignored.
		Plumbing []string
	}

	delegated struct {
		err error
	}

	stackTracer interface {
		StackTrace() errors.StackTrace
	}
)

// Delegate tags err as raised by code a handler called into. A nil err stays nil.
func Delegate(err error) error {
	if err == nil {
		return nil
	}

	return &delegated{err: err}
}

// IsDelegated reports whether any error in err's chain was tagged by Delegate.
func IsDelegated(err error) bool {
	var d *delegated
	return errors.As(err, &d)
}

// IsInterrupt reports whether err was caused by cancellation of the
// invocation (user interrupt or signal).
func IsInterrupt(err error) bool {
	return errors.Is(err, context.Canceled)
}

func (d *delegated) Error() string { return d.err.Error() }
func (d *delegated) Unwrap() error { return d.err }
func (d *delegated) Cause() error  { return d.err }

func (d *delegated) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%+v", d.err)
		return
	}

	_, _ = io.WriteString(s, d.err.Error())
}

// Recovered converts a value returned by recover() into a *PanicError holding
// the frames between the panic and the caller of the deferred function. It
// must be called directly from the deferred function.
func Recovered(v any) *PanicError {
	pcs := make([]uintptr, 128)
	n := runtime.Callers(1, pcs)
	frames := resolve(pcs[:n])

	// only frames from the panic site outward are kept
	for i, f := range frames {
		if f.Function == "runtime.gopanic" {
			return &PanicError{Value: v, frames: frames[i+1:]}
		}
	}

	return &PanicError{Value: v, frames: frames}
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (p *PanicError) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}

	return nil
}

// Classify attributes err, raised while invoking a handler that lives in
// handlerPkg.
func (c Classifier) Classify(err error, handlerPkg string) *Failure {
	frames := c.trim(framesOf(err))
	f := &Failure{Origin: Command, Err: err, Panic: isPanic(err), Frames: traceback(frames)}

	if IsDelegated(err) {
		f.Origin = Module
		return f
	}

	for _, fr := range frames {
		if fr.Package() != handlerPkg {
			f.Origin = Module
			break
		}
	}

	return f
}

// Framework wraps an error that escaped the dispatcher itself.
func (c Classifier) Framework(err error) *Failure {
	return &Failure{
		Origin: Framework,
		Err:    err,
		Panic:  isPanic(err),
		Frames: traceback(c.dropPlumbing(framesOf(err))),
	}
}

// Summary is the one-line description of the failure.
func (f *Failure) Summary() string {
	return f.Err.Error()
}

// WriteFrames writes the frames in traceback form.
func (f *Failure) WriteFrames(w io.Writer) {
	for _, fr := range f.Frames {
		fmt.Fprintln(w, fr.String())
	}
}

// Package returns the Go package path the frame's function belongs to.
func (f Frame) Package() string {
	return PackageOf(f.Function)
}

func (f Frame) String() string {
	return fmt.Sprintf("  File %q, line %d, in %s", f.File, f.Line, f.Function)
}

// PackageOf returns the package path of a fully qualified function name as
// reported by runtime.FuncForPC or runtime.Frame.
func PackageOf(function string) string {
	name := function
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}

	slash := strings.LastIndexByte(name, '/')
	if dot := strings.IndexByte(name[slash+1:], '.'); dot >= 0 {
		return name[:slash+1+dot]
	}

	return name
}

func isPanic(err error) bool {
	var p *PanicError
	return errors.As(err, &p)
}

// framesOf returns the innermost-first frames recorded for err: the panic
// stack when err carries one, otherwise the deepest pkg/errors stack.
func framesOf(err error) []Frame {
	var p *PanicError
	if errors.As(err, &p) {
		return p.frames
	}

	var deepest stackTracer
	for e := err; e != nil; e = errors.Unwrap(e) {
		if st, ok := e.(stackTracer); ok {
			deepest = st
		}
	}

	if deepest == nil {
		return nil
	}

	st := deepest.StackTrace()
	pcs := make([]uintptr, len(st))
	for i, f := range st {
		pcs[i] = uintptr(f)
	}

	return resolve(pcs)
}

func resolve(pcs []uintptr) []Frame {
	if len(pcs) == 0 {
		return nil
	}

	var out []Frame
	frames := runtime.CallersFrames(pcs)
	for {
		f, more := frames.Next()
		if f.Function != "" {
			out = append(out, Frame{Function: f.Function, File: f.File, Line: f.Line})
		}

		if !more {
			return out
		}
	}
}

func (c Classifier) trim(frames []Frame) []Frame {
	for i, f := range frames {
		if f.Function == c.Boundary {
			frames = frames[:i]
			break
		}
	}

	return c.dropPlumbing(frames)
}

func (c Classifier) dropPlumbing(frames []Frame) []Frame {
	out := make([]Frame, 0, len(frames))
	for _, f := range frames {
		if !c.isPlumbing(f.Package()) {
			out = append(out, f)
		}
	}

	return out
}

func (c Classifier) isPlumbing(pkg string) bool {
	if pkg == "runtime" || pkg == "reflect" || strings.HasPrefix(pkg, "runtime/") {
		return true
	}

	for _, p := range c.Plumbing {
		if p == pkg {
			return true
		}
	}

	return false
}

func traceback(frames []Frame) []Frame {
	out := make([]Frame, len(frames))
	for i, f := range frames {
		out[len(frames)-1-i] = f
	}

	return out
}
