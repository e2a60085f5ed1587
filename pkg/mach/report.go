package mach

import (
	"fmt"
	"io"
	"strings"

	"github.com/pseudomuto/mach/pkg/failure"
)

const machError = `The error occurred in mach itself. This is likely a bug in mach itself or a
fundamental problem with a loaded module.

Please consider filing a bug against mach by going to the URL:

    https://bugzilla.mozilla.org/enter_bug.cgi?product=Core&component=mach

`

const errorFooter = `If filing a bug, please include the full output of mach, including this error
message.

The details of the failure are as follows:
`

const commandError = `The error occurred in the implementation of the invoked mach command.

This should never occur and is likely a bug in the implementation of that
command. Consider filing a bug for this issue.
`

const moduleError = `The error occured in code that was called by the mach command. This is either
a bug in the called code itself or in the way that mach is calling it.

You should consider filing a bug for this issue.
`

const (
	invalidCommand = "Invalid command specified. The list of commands is below.\n\n"
	interrupted    = "mach interrupted by signal or user action. Stopping.\n"
)

// banner returns the explanation printed for a failure's origin.
func banner(o failure.Origin) string {
	switch o {
	case failure.Command:
		return commandError
	case failure.Module:
		return moduleError
	default:
		return machError
	}
}

// writeReport writes the full failure report for an invocation of argv.
func writeReport(w io.Writer, argv []string, f *failure.Failure) {
	fmt.Fprintf(w, "Error running mach:\n\n    %s\n\n", quoteArgs(argv))
	fmt.Fprintln(w, banner(f.Origin))

	fmt.Fprintln(w, errorFooter)
	fmt.Fprintln(w, f.Summary())
	fmt.Fprintln(w)
	f.WriteFrames(w)
}

func quoteArgs(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = fmt.Sprintf("%q", a)
	}

	return "[" + strings.Join(quoted, ", ") + "]"
}
