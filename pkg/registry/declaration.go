package registry

import "github.com/pkg/errors"

// Declaration describes a command before it's bound to a handler.
type Declaration struct {
	name        string
	help        string
	description string
	args        []ArgumentSpec
}

// Command starts a declaration for the named command.
func Command(name, help string) *Declaration {
	return &Declaration{name: name, help: help}
}

// Describe sets the long description shown in the command's help.
func (d *Declaration) Describe(description string) *Declaration {
	d.description = description
	return d
}

// Argument appends an argument. Arguments keep the order they're added in.
func (d *Declaration) Argument(spec ArgumentSpec) *Declaration {
	d.args = append(d.args, spec)
	return d
}

// Name returns the declared command name.
func (d *Declaration) Name() string {
	return d.name
}

func (d *Declaration) descriptor() (*Descriptor, error) {
	if d.name == "" {
		return nil, errors.New("command has no name")
	}

	seen := make(map[string]bool, len(d.args))
	args := make([]ArgumentSpec, len(d.args))
	for i, a := range d.args {
		if err := a.Validate(); err != nil {
			return nil, errors.Wrapf(err, "invalid argument for command %s", d.name)
		}

		a.Flags = append([]string(nil), a.Flags...)
		a.Choices = append([]string(nil), a.Choices...)

		dest := a.DestName()
		if seen[dest] {
			return nil, errors.Errorf("command %s: duplicate argument destination %s", d.name, dest)
		}

		seen[dest] = true
		args[i] = a
	}

	return &Descriptor{
		Name:        d.name,
		Help:        d.help,
		Description: d.description,
		Arguments:   args,
	}, nil
}
