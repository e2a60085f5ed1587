package loader

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/handler"
	"github.com/pseudomuto/mach/pkg/registry"
	"gopkg.in/yaml.v3"
)

type (
	// Manifest is the contents of a command manifest file.
	Manifest struct {
		Commands []CommandManifest `yaml:"commands"`
	}

	// CommandManifest declares a single script backed command.
	//
	// The script receives one value per declared argument, in order: unset
	// options are omitted, store values are passed verbatim, store_true and
	// store_false pass their first option string when given, and append
	// passes every value.
	CommandManifest struct {
		Name                   string             `yaml:"name"`
		Help                   string             `yaml:"help"`
		Description            string             `yaml:"description,omitempty"`
		Script                 string             `yaml:"script"`
		RequireUnixEnvironment bool               `yaml:"require_unix_environment,omitempty"`
		IgnoreErrors           bool               `yaml:"ignore_errors,omitempty"`
		AppendEnv              map[string]string  `yaml:"append_env,omitempty"`
		Arguments              []ArgumentManifest `yaml:"arguments,omitempty"`
	}

	// ArgumentManifest declares a command argument.
	ArgumentManifest struct {
		Flags    []string `yaml:"flags"`
		Dest     string   `yaml:"dest,omitempty"`
		Help     string   `yaml:"help,omitempty"`
		Choices  []string `yaml:"choices,omitempty"`
		Default  any      `yaml:"default,omitempty"`
		Action   string   `yaml:"action,omitempty"`
		Metavar  string   `yaml:"metavar,omitempty"`
		Required bool     `yaml:"required,omitempty"`
	}
)

// LoadManifest decodes a manifest. Unknown keys are an error.
func LoadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to unmarshal command manifest")
	}

	return &m, nil
}

// Install registers every command of the manifest.
func (m *Manifest) Install(r *registry.Registry) error {
	for _, c := range m.Commands {
		if c.Script == "" {
			return errors.Errorf("command %s has no script", c.Name)
		}

		decl := registry.Command(c.Name, c.Help).Describe(c.Description)
		for _, a := range c.Arguments {
			decl.Argument(a.spec())
		}

		if err := registry.RegisterFunc(r, decl, c.run); err != nil {
			return errors.Wrapf(err, "failed to register command %s", c.Name)
		}
	}

	return nil
}

func (a ArgumentManifest) spec() registry.ArgumentSpec {
	return registry.ArgumentSpec{
		Flags:    a.Flags,
		Dest:     a.Dest,
		Help:     a.Help,
		Choices:  a.Choices,
		Default:  a.Default,
		Action:   registry.Action(a.Action),
		Metavar:  a.Metavar,
		Required: a.Required,
	}
}

func (c CommandManifest) run(ctx context.Context, base *handler.Base, args registry.Args) (int, error) {
	return base.RunCommand(ctx, handler.RunOptions{
		Args:                   c.Command(base.Cwd, args),
		AppendEnv:              c.AppendEnv,
		LogName:                c.Name,
		RequireUnixEnvironment: c.RequireUnixEnvironment,
		IgnoreErrors:           c.IgnoreErrors,
	})
}

// Command returns the argument vector the command runs for args.
func (c CommandManifest) Command(cwd string, args registry.Args) []string {
	script := c.Script
	if !filepath.IsAbs(script) {
		script = filepath.Join(cwd, script)
	}

	argv := []string{script}
	for _, a := range c.Arguments {
		spec := a.spec()
		value, ok := args[spec.DestName()]
		if !ok || value == nil {
			continue
		}

		switch spec.ActionOrDefault() {
		case registry.StoreTrue:
			if v, _ := value.(bool); v {
				argv = append(argv, spec.Flags[0])
			}
		case registry.StoreFalse:
			if v, ok := value.(bool); ok && !v {
				argv = append(argv, spec.Flags[0])
			}
		case registry.Append:
			argv = append(argv, args.Strings(spec.DestName())...)
		default:
			argv = append(argv, fmt.Sprint(value))
		}
	}

	return argv
}
