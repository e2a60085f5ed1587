package grammar

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/registry"
	"github.com/urfave/cli/v3"
)

// Namespace keys set by the grammar itself.
const (
	KeyCommand     = "command"
	KeyVerbose     = "verbose"
	KeyLogFile     = "logfile"
	KeyLogInterval = "log_interval"
	KeyProvider    = "provider"
	KeyMethod      = "method"
	KeyFunc        = "func"

	// HelpCommand is the pseudo-command that prints the full help.
	HelpCommand = "help"

	stateKey = "mach.grammar"
	nameKey  = "mach.command"
)

// Invocation kinds.
const (
	KindCommand Kind = iota
	KindHelp
	KindCommandHelp
	KindInvalid
)

// Globals are the options available to every invocation.
var Globals = []registry.ArgumentSpec{
	{
		Flags:  []string{"-h", "--help"},
		Dest:   "help",
		Action: registry.StoreTrue,
		Help:   "Show this help message and exit.",
	},
	{
		Flags:  []string{"-v", "--verbose"},
		Dest:   KeyVerbose,
		Action: registry.StoreTrue,
		Help:   "Print verbose output.",
	},
	{
		Flags:   []string{"-l", "--log-file"},
		Dest:    KeyLogFile,
		Metavar: "FILENAME",
		Help:    "Filename to write log data to.",
	},
	{
		Flags:  []string{"--log-interval"},
		Dest:   KeyLogInterval,
		Action: registry.StoreTrue,
		Help: "Prefix log line with interval from last message rather than relative time. " +
			"Note that this is NOT execution time if there are parallel operations.",
	},
}

type (
	// Kind classifies a parsed invocation.
	Kind int

	// Grammar is the command line grammar for a set of descriptors.
	Grammar struct {
		prog        string
		descriptors []*registry.Descriptor
		byName      map[string]*registry.Descriptor
	}

	// Invocation is the result of parsing an argument vector.
	Invocation struct {
		Kind Kind

		// Command is the command token (also set for KindInvalid)
		Command    string
		Descriptor *registry.Descriptor

		// Namespace holds every parsed value, including the global options
		// and routing keys
		Namespace registry.Args
	}

	// UsageError is returned by Parse for malformed command lines.
	UsageError struct {
		// Command is the command being parsed, empty for global options
		Command string
		Err     error
	}

	// parseState collects what the urfave actions saw during a single Parse.
	parseState struct {
		helpShown  bool
		helpFor    string
		invalid    string
		descriptor *registry.Descriptor
		namespace  registry.Args
	}
)

var fallbackHelp = cli.HelpPrinter

func init() {
	// urfave prints help for -h/--help itself; route it to the state of the
	// Parse call so mach renders help its own way.
	cli.HelpPrinter = func(w io.Writer, templ string, data any) {
		cmd, ok := data.(*cli.Command)
		if ok {
			if st, ok := cmd.Metadata[stateKey].(*parseState); ok {
				st.helpShown = true
				st.helpFor, _ = cmd.Metadata[nameKey].(string)
				return
			}
		}

		fallbackHelp(w, templ, data)
	}
}

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindHelp:
		return "help"
	case KindCommandHelp:
		return "command help"
	case KindInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// Build returns the grammar for prog and descriptors. Commands keep the order
// of descriptors.
func Build(prog string, descriptors []*registry.Descriptor) *Grammar {
	g := &Grammar{
		prog:        prog,
		descriptors: append([]*registry.Descriptor(nil), descriptors...),
		byName:      make(map[string]*registry.Descriptor, len(descriptors)),
	}

	for _, d := range descriptors {
		g.byName[d.Name] = d
	}

	return g
}

// Prog returns the program name.
func (g *Grammar) Prog() string {
	return g.prog
}

// Commands returns the command names accepted as the first token.
func (g *Grammar) Commands() []string {
	names := make([]string, len(g.descriptors))
	for i, d := range g.descriptors {
		names[i] = d.Name
	}

	return names
}

// Parse parses argv (without the program name).
func (g *Grammar) Parse(ctx context.Context, argv []string) (*Invocation, error) {
	name, found := firstCommand(argv)
	if found {
		if name == HelpCommand {
			return &Invocation{Kind: KindHelp, Command: HelpCommand}, nil
		}

		if _, ok := g.byName[name]; !ok {
			return &Invocation{Kind: KindInvalid, Command: name}, nil
		}
	}

	st := new(parseState)
	root := g.command(st)

	err := root.Run(ctx, append([]string{g.prog}, argv...))
	if st.helpShown {
		if st.helpFor == "" {
			return &Invocation{Kind: KindHelp, Command: HelpCommand}, nil
		}

		return &Invocation{Kind: KindCommandHelp, Command: st.helpFor, Descriptor: g.byName[st.helpFor]}, nil
	}

	if err != nil {
		var usageErr *UsageError
		if errors.As(err, &usageErr) {
			return nil, usageErr
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, &UsageError{Command: name, Err: err}
	}

	if st.invalid != "" {
		return &Invocation{Kind: KindInvalid, Command: st.invalid}, nil
	}

	if st.descriptor == nil {
		return &Invocation{Kind: KindHelp, Command: HelpCommand, Namespace: st.namespace}, nil
	}

	return &Invocation{
		Kind:       KindCommand,
		Command:    st.descriptor.Name,
		Descriptor: st.descriptor,
		Namespace:  st.namespace,
	}, nil
}

func (g *Grammar) command(st *parseState) *cli.Command {
	root := &cli.Command{
		Name:                      g.prog,
		HideHelpCommand:           true,
		DisableSliceFlagSeparator: true,
		Writer:                    io.Discard,
		ErrWriter:                 io.Discard,
		Metadata:                  map[string]any{stateKey: st},
		OnUsageError:              returnUsageError,
		ExitErrHandler:            func(context.Context, *cli.Command, error) {},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Present() {
				st.invalid = cmd.Args().First()
				return nil
			}

			st.namespace = globalValues(cmd, registry.Args{KeyCommand: HelpCommand})
			return nil
		},
	}

	// -h/--help is provided by urfave
	for _, spec := range Globals[1:] {
		root.Flags = append(root.Flags, flagFor(spec))
	}

	for _, d := range g.descriptors {
		root.Commands = append(root.Commands, subcommand(d, st))
	}

	return root
}

func subcommand(d *registry.Descriptor, st *parseState) *cli.Command {
	cmd := &cli.Command{
		Name:            d.Name,
		Usage:           d.Help,
		Description:     d.Description,
		HideHelpCommand: true,
		Metadata:        map[string]any{stateKey: st, nameKey: d.Name},
		OnUsageError:    returnUsageError,
		Action: func(_ context.Context, cmd *cli.Command) error {
			ns, err := collect(d, cmd)
			if err != nil {
				return &UsageError{Command: d.Name, Err: err}
			}

			ns[KeyCommand] = d.Name
			if d.ClassBased() {
				ns[KeyProvider] = d.Provider
				ns[KeyMethod] = d.Method
			} else {
				ns[KeyFunc] = d.Func
			}

			st.descriptor = d
			st.namespace = globalValues(cmd, ns)
			return nil
		},
	}

	for _, a := range d.Arguments {
		if !a.Positional() {
			cmd.Flags = append(cmd.Flags, flagFor(a))
		}
	}

	return cmd
}

func returnUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

// globalValues sets the global options on ns. They're set last so they
// always win over command arguments with the same destination.
func globalValues(cmd *cli.Command, ns registry.Args) registry.Args {
	ns[KeyVerbose] = cmd.Bool("verbose")
	ns[KeyLogFile] = cmd.String("log-file")
	ns[KeyLogInterval] = cmd.Bool("log-interval")

	return ns
}

// firstCommand returns the first token of argv that isn't a global option or
// the value of one.
func firstCommand(argv []string) (string, bool) {
	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		switch {
		case arg == "--":
			if i+1 < len(argv) {
				return argv[i+1], true
			}

			return "", false
		case arg == "-l" || arg == "--log-file" || arg == "-log-file":
			i++
		case strings.HasPrefix(arg, "-") && arg != "-":
		default:
			return arg, true
		}
	}

	return "", false
}
