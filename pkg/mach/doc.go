// Package mach runs the command-line interface: it parses the invocation,
// applies the global options, dispatches to the selected command handler and
// turns failures into a report and an exit code.
//
// Two boundaries surround a command. The Dispatcher calls the handler inside
// the dispatch boundary: anything the handler returns or panics with is
// classified (see the failure package) as either a bug in the command or in
// code it called, reported, and mapped to exit code 1. Mach wraps the
// Dispatcher in an outer boundary where anything escaping the dispatcher
// itself is reported as a failure of mach. Interrupts (a cancelled context)
// pass through the dispatch boundary and are reported by Mach without a
// stack trace.
//
// Example:
//
//	m := mach.New(mach.Params{Cwd: cwd, Registry: r, LogManager: lm})
//	os.Exit(m.Run(ctx, os.Args[1:]))
package mach
