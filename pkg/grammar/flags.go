package grammar

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/registry"
	"github.com/urfave/cli/v3"
)

// flagName returns the urfave name of an option: its first long option
// string (or else the first one) without dashes.
func flagName(a registry.ArgumentSpec) string {
	for _, f := range a.Flags {
		if strings.HasPrefix(f, "--") {
			return strings.TrimLeft(f, "-")
		}
	}

	return strings.TrimLeft(a.Flags[0], "-")
}

func flagAliases(a registry.ArgumentSpec) []string {
	name := flagName(a)

	var aliases []string
	for _, f := range a.Flags {
		if n := strings.TrimLeft(f, "-"); n != name {
			aliases = append(aliases, n)
		}
	}

	return aliases
}

func flagFor(a registry.ArgumentSpec) cli.Flag {
	name, aliases := flagName(a), flagAliases(a)

	switch a.ActionOrDefault() {
	case registry.StoreTrue, registry.StoreFalse:
		return &cli.BoolFlag{Name: name, Aliases: aliases, Usage: a.Help}
	case registry.Append:
		return &cli.StringSliceFlag{Name: name, Aliases: aliases, Usage: a.Help, Required: a.Required}
	default:
		return &cli.StringFlag{Name: name, Aliases: aliases, Usage: a.Help, Required: a.Required}
	}
}

// collect reads the values of d's arguments from a parsed command.
func collect(d *registry.Descriptor, cmd *cli.Command) (registry.Args, error) {
	ns := make(registry.Args)

	var positionals []registry.ArgumentSpec
	for _, a := range d.Arguments {
		if a.Positional() {
			positionals = append(positionals, a)
			continue
		}

		name, dest := flagName(a), a.DestName()
		set := cmd.IsSet(name)

		switch a.ActionOrDefault() {
		case registry.StoreTrue:
			ns[dest] = cmd.Bool(name)
			if !set && a.Default != nil {
				ns[dest] = a.Default
			}
		case registry.StoreFalse:
			ns[dest] = !cmd.Bool(name)
			if !set {
				ns[dest] = true
				if a.Default != nil {
					ns[dest] = a.Default
				}
			}
		case registry.Append:
			if set {
				values := cmd.StringSlice(name)
				for _, v := range values {
					if err := checkChoice(a, v); err != nil {
						return nil, err
					}
				}

				ns[dest] = values
			} else if a.Default != nil {
				ns[dest] = a.Default
			}
		default:
			if set {
				v := cmd.String(name)
				if err := checkChoice(a, v); err != nil {
					return nil, err
				}

				ns[dest] = v
			} else if a.Default != nil {
				ns[dest] = a.Default
			}
		}
	}

	args := cmd.Args().Slice()

	var missing []string
	for _, p := range positionals {
		dest := p.DestName()

		if len(args) == 0 {
			if p.Default != nil {
				ns[dest] = p.Default
				continue
			}

			missing = append(missing, displayName(p))
			continue
		}

		if p.ActionOrDefault() == registry.Append {
			for _, v := range args {
				if err := checkChoice(p, v); err != nil {
					return nil, err
				}
			}

			ns[dest] = args
			args = nil
			continue
		}

		if err := checkChoice(p, args[0]); err != nil {
			return nil, err
		}

		ns[dest] = args[0]
		args = args[1:]
	}

	if len(missing) > 0 {
		return nil, errors.Errorf("the following arguments are required: %s", strings.Join(missing, ", "))
	}

	if len(args) > 0 {
		return nil, errors.Errorf("unrecognized arguments: %s", strings.Join(args, " "))
	}

	return ns, nil
}

func checkChoice(a registry.ArgumentSpec, value string) error {
	if len(a.Choices) == 0 {
		return nil
	}

	for _, c := range a.Choices {
		if c == value {
			return nil
		}
	}

	quoted := make([]string, len(a.Choices))
	for i, c := range a.Choices {
		quoted[i] = fmt.Sprintf("'%s'", c)
	}

	return errors.Errorf("argument %s: invalid choice: '%s' (choose from %s)",
		displayName(a), value, strings.Join(quoted, ", "))
}

// displayName is how errors refer to an argument.
func displayName(a registry.ArgumentSpec) string {
	if !a.Positional() {
		return strings.Join(a.Flags, "/")
	}

	if a.Metavar != "" {
		return a.Metavar
	}

	return a.DestName()
}
