package loader

import (
	"math/big"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

type (
	hclManifest struct {
		Commands []hclCommand `hcl:"command,block"`
	}

	hclCommand struct {
		Name                   string            `hcl:"name,label"`
		Help                   string            `hcl:"help,optional"`
		Description            string            `hcl:"description,optional"`
		Script                 string            `hcl:"script"`
		RequireUnixEnvironment bool              `hcl:"require_unix_environment,optional"`
		IgnoreErrors           bool              `hcl:"ignore_errors,optional"`
		AppendEnv              map[string]string `hcl:"append_env,optional"`
		Arguments              []hclArgument     `hcl:"argument,block"`
	}

	hclArgument struct {
		Flags    []string  `hcl:"flags"`
		Dest     string    `hcl:"dest,optional"`
		Help     string    `hcl:"help,optional"`
		Choices  []string  `hcl:"choices,optional"`
		Default  cty.Value `hcl:"default,optional"`
		Action   string    `hcl:"action,optional"`
		Metavar  string    `hcl:"metavar,optional"`
		Required bool      `hcl:"required,optional"`
	}
)

// LoadHCLManifest decodes a manifest written in HCL. filename is only used
// in diagnostics.
//
//	command "flash" {
//	  help   = "Flash a device with a B2G image."
//	  script = "flash.sh"
//
//	  argument {
//	    flags = ["--serial-number", "-s"]
//	  }
//
//	  argument {
//	    flags   = ["project"]
//	    choices = ["gecko", "gaia", "time"]
//	  }
//	}
func LoadHCLManifest(src []byte, filename string) (*Manifest, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrap(diags, "failed to parse command manifest")
	}

	var parsed hclManifest
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, errors.Wrap(diags, "failed to decode command manifest")
	}

	m := &Manifest{Commands: make([]CommandManifest, 0, len(parsed.Commands))}
	for _, c := range parsed.Commands {
		cmd := CommandManifest{
			Name:                   c.Name,
			Help:                   c.Help,
			Description:            c.Description,
			Script:                 c.Script,
			RequireUnixEnvironment: c.RequireUnixEnvironment,
			IgnoreErrors:           c.IgnoreErrors,
			AppendEnv:              c.AppendEnv,
		}

		for _, a := range c.Arguments {
			def, err := goValue(a.Default)
			if err != nil {
				return nil, errors.Wrapf(err, "command %s: argument %v", c.Name, a.Flags)
			}

			cmd.Arguments = append(cmd.Arguments, ArgumentManifest{
				Flags:    a.Flags,
				Dest:     a.Dest,
				Help:     a.Help,
				Choices:  a.Choices,
				Default:  def,
				Action:   a.Action,
				Metavar:  a.Metavar,
				Required: a.Required,
			})
		}

		m.Commands = append(m.Commands, cmd)
	}

	return m, nil
}

// goValue converts an argument default to the value the grammar stores: a
// string, bool, int, float64 or []string. Null is nil.
func goValue(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}

	if !v.IsWhollyKnown() {
		return nil, errors.New("default must be a known value")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return int(i), nil
		}

		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]string, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()

			s, err := convert.Convert(elem, cty.String)
			if err != nil || s.IsNull() {
				return nil, errors.Errorf("default elements must be strings, got %s", elem.Type().FriendlyName())
			}

			out = append(out, s.AsString())
		}

		return out, nil
	}

	return nil, errors.Errorf("unsupported default of type %s", ty.FriendlyName())
}
