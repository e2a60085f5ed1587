// Package grammar builds mach's command line grammar from the registered
// command descriptors and parses argument vectors against it.
//
// Parsing is done with github.com/urfave/cli/v3: every descriptor becomes a
// subcommand of a root command carrying the global options. Help output
// follows the layout of Python's argparse, which is what mach users know.
package grammar
