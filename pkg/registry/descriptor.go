package registry

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/handler"
)

// Argument actions.
const (
	Store      Action = "store"
	StoreTrue  Action = "store_true"
	StoreFalse Action = "store_false"
	Append     Action = "append"
)

type (
	// Action says how an argument's value is recorded.
	Action string

	// ArgumentSpec describes a single command argument.
	ArgumentSpec struct {
		// Flags is either a single positional name ("project") or one or more
		// option strings ("--serial-number", "-s")
		Flags []string

		// Dest is the key the value is stored under. Derived from Flags when
		// empty.
		Dest     string
		Help     string
		Choices  []string
		Default  any
		Action   Action
		Metavar  string
		Required bool
	}

	// Descriptor is everything mach knows about a registered command.
	Descriptor struct {
		Name        string
		Help        string
		Description string
		Arguments   []ArgumentSpec

		// Provider and Method identify a class-based handler
		Provider string
		Method   string

		// Func is set for function-based handlers
		Func any

		// Package is the Go package the handler is implemented in
		Package string

		construct func(*handler.Base) reflect.Value
		sig       *signature
	}
)

// Positional reports whether the argument is positional.
func (a ArgumentSpec) Positional() bool {
	return len(a.Flags) == 1 && !strings.HasPrefix(a.Flags[0], "-")
}

// DestName returns the key the argument's value is stored under in Args. For
// options it's the first long option (or else the first short one) with
// leading dashes removed and inner dashes turned into underscores.
func (a ArgumentSpec) DestName() string {
	if a.Dest != "" {
		return a.Dest
	}

	if len(a.Flags) == 0 {
		return ""
	}

	if a.Positional() {
		return a.Flags[0]
	}

	name := a.Flags[0]
	for _, f := range a.Flags {
		if strings.HasPrefix(f, "--") {
			name = f
			break
		}
	}

	return strings.ReplaceAll(strings.TrimLeft(name, "-"), "-", "_")
}

// ActionOrDefault returns the action, defaulting to Store.
func (a ArgumentSpec) ActionOrDefault() Action {
	if a.Action == "" {
		return Store
	}

	return a.Action
}

// Validate checks the argument is internally consistent.
func (a ArgumentSpec) Validate() error {
	if len(a.Flags) == 0 {
		return errors.New("argument has no flags")
	}

	positional := !strings.HasPrefix(a.Flags[0], "-")
	if positional && len(a.Flags) > 1 {
		return errors.Errorf("positional argument %s cannot have aliases", a.Flags[0])
	}

	for _, f := range a.Flags {
		if f == "" || f == "-" || f == "--" {
			return errors.Errorf("invalid flag: %q", f)
		}

		if !positional && !strings.HasPrefix(f, "-") {
			return errors.Errorf("invalid option string %q: must start with '-'", f)
		}
	}

	switch a.ActionOrDefault() {
	case Store, Append:
	case StoreTrue, StoreFalse:
		if positional {
			return errors.Errorf("positional argument %s cannot use %s", a.Flags[0], a.Action)
		}

		if len(a.Choices) > 0 {
			return errors.Errorf("argument %s: choices are not allowed with %s", a.Flags[0], a.Action)
		}
	default:
		return errors.Errorf("argument %s: unknown action %q", a.Flags[0], a.Action)
	}

	return nil
}

// ClassBased reports whether the command is bound to a provider method.
func (d *Descriptor) ClassBased() bool {
	return d.Method != ""
}
