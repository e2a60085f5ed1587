package mach

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/failure"
	"github.com/pseudomuto/mach/pkg/grammar"
	"github.com/pseudomuto/mach/pkg/handler"
	"github.com/pseudomuto/mach/pkg/logging"
	"github.com/pseudomuto/mach/pkg/registry"
)

// Reserved are the namespace keys consumed by mach. They're never passed to
// a command handler.
var Reserved = []string{
	"settings_file",
	grammar.KeyVerbose,
	grammar.KeyLogFile,
	grammar.KeyLogInterval,
	grammar.KeyCommand,
	grammar.KeyProvider,
	grammar.KeyMethod,
	grammar.KeyFunc,
}

// boundary is the function handlers are invoked from. Failure frames are cut
// there.
var boundary = reflect.TypeFor[Dispatcher]().PkgPath() + ".(*Dispatcher).invoke"

// Dispatcher parses an invocation and runs the selected command.
type Dispatcher struct {
	Grammar    *grammar.Grammar
	LogManager *logging.Manager

	// NewBase returns the Base handed to the invoked command
	NewBase func() *handler.Base

	Stdout io.Writer
	Stderr io.Writer

	classifier failure.Classifier
}

// NewDispatcher returns a Dispatcher for g.
func NewDispatcher(g *grammar.Grammar, lm *logging.Manager, newBase func() *handler.Base, stdout, stderr io.Writer) *Dispatcher {
	return &Dispatcher{
		Grammar:    g,
		LogManager: lm,
		NewBase:    newBase,
		Stdout:     stdout,
		Stderr:     stderr,
		classifier: failure.Classifier{
			Boundary: boundary,
			Plumbing: []string{reflect.TypeFor[registry.Registry]().PkgPath()},
		},
	}
}

// Run runs the invocation argv (without the program name) and returns its exit
// code. Command failures are reported and become exit code 1. The returned
// error is either an interrupt or a failure of the dispatcher itself.
func (d *Dispatcher) Run(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, d.Grammar.WriteUsage(d.Stdout)
	}

	if argv[0] == grammar.HelpCommand {
		return 0, d.Grammar.WriteHelp(d.Stdout)
	}

	inv, err := d.Grammar.Parse(ctx, argv)
	if err != nil {
		var usageErr *grammar.UsageError
		if errors.As(err, &usageErr) {
			return 1, d.usageError(usageErr.Command, usageErr.Err)
		}

		return 1, err
	}

	switch inv.Kind {
	case grammar.KindInvalid:
		if _, err := io.WriteString(d.Stdout, invalidCommand); err != nil {
			return 1, errors.Wrap(err, "failed to write help")
		}

		return 1, d.Grammar.WriteHelp(d.Stdout)
	case grammar.KindHelp:
		return 0, d.Grammar.WriteHelp(d.Stdout)
	case grammar.KindCommandHelp:
		return 0, d.Grammar.WriteCommandHelp(d.Stdout, inv.Command)
	}

	if path := inv.Namespace.String(grammar.KeyLogFile); path != "" {
		if err := d.LogManager.AddJSONFile(path); err != nil {
			return 1, d.usageError("", errors.Wrapf(errors.Cause(err), "argument -l/--log-file: can't open '%s'", path))
		}
	}

	level := slog.LevelInfo
	if inv.Namespace.Bool(grammar.KeyVerbose) {
		level = slog.LevelDebug
	}

	d.LogManager.AddTerminalLogging(d.Stdout, level, inv.Namespace.Bool(grammar.KeyLogInterval))

	if err := ctx.Err(); err != nil {
		return 1, err
	}

	target, err := inv.Descriptor.Bind(d.NewBase())
	if err != nil {
		return 1, errors.Wrap(err, "dispatch configuration error")
	}

	result, err := d.invoke(ctx, target, inv.Namespace.Without(Reserved...))
	if err != nil {
		if failure.IsInterrupt(err) {
			return 1, err
		}

		writeReport(d.Stdout, argv, d.classifier.Classify(err, inv.Descriptor.Package))
		return 1, nil
	}

	code, err := ExitCode(result)
	if err != nil {
		return 1, errors.Wrapf(err, "command %s", inv.Command)
	}

	return code, nil
}

// invoke is the dispatch boundary.
func (d *Dispatcher) invoke(ctx context.Context, t *registry.Target, args registry.Args) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, failure.Recovered(r)
		}
	}()

	return t.Call(ctx, args)
}

func (d *Dispatcher) usageError(command string, err error) error {
	if werr := d.Grammar.WriteCommandUsage(d.Stderr, command); werr != nil {
		return werr
	}

	prog := d.Grammar.Prog()
	if command != "" {
		prog += " " + command
	}

	_, werr := fmt.Fprintf(d.Stderr, "%s: error: %s\n", prog, err)
	return errors.Wrap(werr, "failed to write usage error")
}

// ExitCode converts a handler result into an exit code. Missing and zero
// results are 0, integers pass through and true is 1. Anything else is an
// error.
func ExitCode(result any) (int, error) {
	if result == nil {
		return 0, nil
	}

	v := reflect.ValueOf(result)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int(v.Uint()), nil
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}

		return 0, nil
	}

	if v.IsZero() || (v.Kind() == reflect.Slice || v.Kind() == reflect.Map) && v.Len() == 0 {
		return 0, nil
	}

	return 0, errors.Errorf("handler returned %T, expected an integer exit code", result)
}
