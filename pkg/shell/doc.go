// Package shell detects the shell mach runs under and rewrites command lines
// that need a Unix-like environment.
//
// Detection looks at SHELL, then MOZILLABUILD (the msys shell it ships), then
// COMSPEC. When MSYSTEM is MINGW32 the process is running inside msys and
// commands that require a Unix environment are routed through the detected
// shell as a single `-c` argument.
package shell
