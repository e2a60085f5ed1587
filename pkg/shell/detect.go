package shell

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrShellNotFound is returned by Detect when no shell can be determined from
// the environment.
var ErrShellNotFound = errors.New("could not detect environment shell")

// Environment describes the shell environment of the running process.
type Environment struct {
	// Shell is the path of the detected shell
	Shell string

	// InMSYS is true when running inside a MINGW32 msys environment
	InMSYS bool
}

// Detect returns the current shell environment, checking env variables in
// order: SHELL, MOZILLABUILD, COMSPEC.
//
// A missing shell is reported as ErrShellNotFound, but the returned
// Environment still records whether msys is active.
func Detect(getenv func(string) string) (Environment, error) {
	var env Environment

	switch {
	case getenv("SHELL") != "":
		env.Shell = getenv("SHELL")
	case getenv("MOZILLABUILD") != "":
		env.Shell = getenv("MOZILLABUILD") + "/msys/bin/sh.exe"
	case getenv("COMSPEC") != "":
		env.Shell = getenv("COMSPEC")
	}

	if getenv("MSYSTEM") == "MINGW32" {
		env.InMSYS = true

		if env.Shell != "" && !strings.HasSuffix(strings.ToLower(env.Shell), ".exe") {
			env.Shell += ".exe"
		}
	}

	if env.Shell == "" {
		return env, ErrShellNotFound
	}

	return env, nil
}

// Normalize adjusts a command so it runs in the environment it needs.
//
// Commands are returned untouched unless requireUnix is set and the process is
// inside msys. In that case the program path is converted to forward slashes,
// any drive specifier is dropped and the whole command line is handed to the
// shell through `-c`, since that is how sh accepts a command.
func (e Environment) Normalize(args []string, requireUnix bool) ([]string, error) {
	if len(args) == 0 {
		return nil, errors.New("cannot normalize an empty command")
	}

	if !requireUnix || !e.InMSYS {
		return args, nil
	}

	if e.Shell == "" {
		return nil, errors.Wrap(ErrShellNotFound, "a unix environment is required")
	}

	prog := stripDrive(strings.ReplaceAll(args[0], `\`, "/"))
	cline := JoinCommandLine(append([]string{prog}, args[1:]...))

	return []string{e.Shell, "-c", cline}, nil
}

func stripDrive(prog string) string {
	if len(prog) < 2 || prog[1] != ':' || !isLetter(prog[0]) {
		return prog
	}

	prog = prog[2:]
	return strings.TrimPrefix(prog, "/")
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
