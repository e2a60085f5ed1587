package grammar

import (
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/registry"
)

const (
	// maxHelpPosition is the furthest column help text starts at
	maxHelpPosition = 24
	lineWidth       = 78
	minTextWidth    = 11

	usagePrefix = "usage: "
	progUsage   = "{prog} [global arguments] command [command arguments]"

	commandHelpText = "show this help message and exit"
)

// banner is printed when mach is run without arguments.
const banner = progUsage + `

mach (German for "do") is the main interface to the Mozilla build system and
common developer tasks.

You tell mach the command you want to perform and it does it for you.

Some common commands are:

    {prog} build     Build B2G.
    {prog} help      Show full help, including the list of all commands.

To see more help for a specific command, run:

  {prog} <command> --help
`

type (
	helpRow struct {
		indent     int
		invocation string
		help       string
	}

	helpSection struct {
		title string
		rows  []helpRow
	}
)

// WriteUsage writes the short usage banner.
func (g *Grammar) WriteUsage(w io.Writer) error {
	_, err := io.WriteString(w, usagePrefix+g.expand(banner))
	return errors.Wrap(err, "failed to write usage")
}

// WriteHelp writes the full help text.
func (g *Grammar) WriteHelp(w io.Writer) error {
	_, err := io.WriteString(w, g.Help())
	return errors.Wrap(err, "failed to write help")
}

// Help returns the full help text.
func (g *Grammar) Help() string {
	sections := make([]helpSection, 0, 2)

	if len(g.descriptors) > 0 {
		commands := helpSection{title: "Commands"}
		commands.rows = append(commands.rows, helpRow{indent: 2, invocation: choiceList(g.Commands())})
		for _, d := range g.descriptors {
			commands.rows = append(commands.rows, helpRow{indent: 4, invocation: d.Name, help: d.Help})
		}

		sections = append(sections, commands)
	}

	globals := helpSection{title: "Global Arguments"}
	for _, a := range Globals {
		globals.rows = append(globals.rows, helpRow{indent: 2, invocation: invocation(a), help: a.Help})
	}

	sections = append(sections, globals)

	return StripChoiceList(render(usagePrefix+g.expand(progUsage), "", sections))
}

// WriteCommandHelp writes the help of a single command.
func (g *Grammar) WriteCommandHelp(w io.Writer, name string) error {
	text, err := g.CommandHelp(name)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, text)
	return errors.Wrap(err, "failed to write command help")
}

// CommandHelp returns the help of a single command.
func (g *Grammar) CommandHelp(name string) (string, error) {
	d, ok := g.byName[name]
	if !ok {
		return "", errors.Errorf("unknown command: %s", name)
	}

	positional := helpSection{title: "positional arguments"}
	optional := helpSection{title: "optional arguments"}
	optional.rows = append(optional.rows, helpRow{indent: 2, invocation: "-h, --help", help: commandHelpText})

	for _, a := range d.Arguments {
		row := helpRow{indent: 2, invocation: invocation(a), help: a.Help}
		if a.Positional() {
			positional.rows = append(positional.rows, row)
		} else {
			optional.rows = append(optional.rows, row)
		}
	}

	var sections []helpSection
	if len(positional.rows) > 0 {
		sections = append(sections, positional)
	}

	sections = append(sections, optional)

	return render(g.usageLine(d), d.Description, sections), nil
}

// WriteCommandUsage writes the one line usage of a command, or of the program
// when name is empty.
func (g *Grammar) WriteCommandUsage(w io.Writer, name string) error {
	line := usagePrefix + g.expand(progUsage)
	if d, ok := g.byName[name]; ok {
		line = g.usageLine(d)
	}

	_, err := io.WriteString(w, line+"\n")
	return errors.Wrap(err, "failed to write usage")
}

// StripChoiceList removes the "{a,b,c}" line rendered under "Commands:",
// keeping the per-command rows that follow it.
func StripChoiceList(text string) string {
	const (
		title  = "Commands:\n"
		search = title + "  {"
		closer = "}\n"
	)

	start := strings.Index(text, search)
	if start == -1 {
		return text
	}

	end := strings.Index(text[start:], closer)
	if end == -1 {
		return text
	}

	return text[:start+len(title)] + text[start+end+len(closer):]
}

func (g *Grammar) expand(s string) string {
	return strings.ReplaceAll(s, "{prog}", g.prog)
}

// usageLine renders "usage: prog command [options] positionals", wrapping
// whole parts onto indented continuation lines.
func (g *Grammar) usageLine(d *registry.Descriptor) string {
	parts := []string{"[-h]"}

	for _, a := range d.Arguments {
		if !a.Positional() {
			parts = append(parts, usagePart(a))
		}
	}

	for _, a := range d.Arguments {
		if a.Positional() {
			parts = append(parts, usagePart(a))
		}
	}

	head := usagePrefix + g.prog + " " + d.Name
	indent := strings.Repeat(" ", len(head)+1)

	var b strings.Builder
	b.WriteString(head)

	width := len(head)
	for _, p := range parts {
		if width+1+len(p) > lineWidth && width > len(indent) {
			b.WriteString("\n" + indent + p)
			width = len(indent) + len(p)
			continue
		}

		b.WriteString(" " + p)
		width += 1 + len(p)
	}

	return b.String()
}

func usagePart(a registry.ArgumentSpec) string {
	if a.Positional() {
		mv := metavar(a)
		if a.ActionOrDefault() == registry.Append {
			return fmt.Sprintf("%s [%s ...]", mv, mv)
		}

		return mv
	}

	part := a.Flags[0]
	switch a.ActionOrDefault() {
	case registry.StoreTrue, registry.StoreFalse:
	default:
		part += " " + metavar(a)
	}

	if a.Required {
		return part
	}

	return "[" + part + "]"
}

// invocation is how an argument is listed in help, e.g. "-l FILENAME,
// --log-file FILENAME".
func invocation(a registry.ArgumentSpec) string {
	if a.Positional() {
		return metavar(a)
	}

	switch a.ActionOrDefault() {
	case registry.StoreTrue, registry.StoreFalse:
		return strings.Join(a.Flags, ", ")
	}

	mv := metavar(a)
	parts := make([]string, len(a.Flags))
	for i, f := range a.Flags {
		parts[i] = f + " " + mv
	}

	return strings.Join(parts, ", ")
}

func metavar(a registry.ArgumentSpec) string {
	switch {
	case a.Metavar != "":
		return a.Metavar
	case len(a.Choices) > 0:
		return choiceList(a.Choices)
	case a.Positional():
		return a.DestName()
	default:
		return strings.ToUpper(a.DestName())
	}
}

func choiceList(choices []string) string {
	return "{" + strings.Join(choices, ",") + "}"
}

func render(usage, description string, sections []helpSection) string {
	helpPos := 0
	for _, s := range sections {
		for _, r := range s.rows {
			helpPos = max(helpPos, r.indent+len(r.invocation)+2)
		}
	}

	helpPos = min(helpPos, maxHelpPosition)

	var b strings.Builder
	b.WriteString(usage + "\n\n")

	if description != "" {
		b.WriteString(wrap(description, lineWidth) + "\n\n")
	}

	for _, s := range sections {
		b.WriteString(s.title + ":\n")
		for _, r := range s.rows {
			writeRow(&b, r, helpPos)
		}

		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeRow(b *strings.Builder, r helpRow, helpPos int) {
	pad := strings.Repeat(" ", r.indent)
	if r.help == "" {
		b.WriteString(pad + r.invocation + "\n")
		return
	}

	lines := strings.Split(wrap(r.help, max(lineWidth-helpPos, minTextWidth)), "\n")

	actionWidth := helpPos - r.indent - 2
	if len(r.invocation) <= actionWidth {
		fmt.Fprintf(b, "%s%-*s  %s\n", pad, actionWidth, r.invocation, lines[0])
		lines = lines[1:]
	} else {
		b.WriteString(pad + r.invocation + "\n")
	}

	indent := strings.Repeat(" ", helpPos)
	for _, l := range lines {
		b.WriteString(indent + l + "\n")
	}
}

// wrap collapses whitespace in text and wraps it to width columns.
func wrap(text string, width int) string {
	return wordwrap.WrapString(strings.Join(strings.Fields(text), " "), uint(width))
}
