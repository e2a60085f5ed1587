package b2g

import (
	"context"
	"testing"

	"github.com/pseudomuto/mach/pkg/grammar"
	"github.com/pseudomuto/mach/pkg/mach"
	"github.com/pseudomuto/mach/pkg/registry"
	"github.com/pseudomuto/mach/pkg/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func newGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()

	r := registry.New()
	require.NoError(t, registry.Install(r, []registry.Installer{flash(), build(), emulator()}))

	return grammar.Build("mach", r.All())
}

// run parses argv and calls the command against a recording base.
func run(t *testing.T, argv ...string) (*testutil.BaseFixture, registry.Args, any) {
	t.Helper()

	inv, err := newGrammar(t).Parse(context.Background(), argv)
	require.NoError(t, err)
	require.Equal(t, grammar.KindCommand, inv.Kind)

	fixture := testutil.NewBase(t, "/b2g")
	target, err := inv.Descriptor.Bind(fixture.Base)
	require.NoError(t, err)

	args := inv.Namespace.Without(mach.Reserved...)
	result, err := target.Call(context.Background(), args)
	require.NoError(t, err)

	return fixture, args, result
}

func TestCommands(t *testing.T) {
	require.Equal(t, []string{"build", "run-emulator", "flash"}, newGrammar(t).Commands())
}

func TestFlash(t *testing.T) {
	t.Run("with serial number", func(t *testing.T) {
		fixture, args, _ := run(t, "flash", "--serial-number", "ABC123", "gaia")
		require.Equal(t, registry.Args{"serial_number": "ABC123", "project": "gaia"}, args)
		testutil.RequireCalls(t, fixture.Runner, []string{"/b2g/flash.sh", "ABC123", "gaia"})
	})

	t.Run("short option", func(t *testing.T) {
		fixture, _, _ := run(t, "flash", "-s", "XYZ", "gecko")
		testutil.RequireCalls(t, fixture.Runner, []string{"/b2g/flash.sh", "XYZ", "gecko"})
	})

	t.Run("without serial number", func(t *testing.T) {
		fixture, args, _ := run(t, "flash", "time")
		require.Equal(t, registry.Args{"project": "time"}, args)
		testutil.RequireCalls(t, fixture.Runner, []string{"/b2g/flash.sh", "time"})
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := newGrammar(t).Parse(context.Background(), []string{"flash", "b2g"})
		testutil.RequireError(t, err, "argument project: invalid choice: 'b2g' (choose from 'gecko', 'gaia', 'time')")
	})
}

func TestScripts(t *testing.T) {
	tests := []struct {
		command string
		script  string
	}{
		{command: "build", script: "/b2g/build.sh"},
		{command: "run-emulator", script: "/b2g/run-emulator.sh"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			fixture, args, _ := run(t, tt.command)
			require.Empty(t, args)
			testutil.RequireCalls(t, fixture.Runner, []string{tt.script})
		})
	}
}

func TestExitStatusPassesThrough(t *testing.T) {
	inv, err := newGrammar(t).Parse(context.Background(), []string{"build"})
	require.NoError(t, err)

	fixture := testutil.NewBase(t, "/b2g")
	fixture.Runner.Status = 4
	fixture.Runner.Output = []string{"compiling", "failed"}

	target, err := inv.Descriptor.Bind(fixture.Base)
	require.NoError(t, err)

	result, err := target.Call(context.Background(), registry.Args{})
	require.NoError(t, err)
	require.Equal(t, 4, result)
	require.Contains(t, fixture.Logs.String(), `"msg":"compiling"`)
	require.Contains(t, fixture.Logs.String(), `"action":"b2g.build"`)
}

func TestModule(t *testing.T) {
	var installers []registry.Installer

	app := fx.New(
		fx.NopLogger,
		Module,
		fx.Invoke(fx.Annotate(func(in []registry.Installer) {
			installers = in
		}, fx.ParamTags(`group:"providers"`))),
	)
	require.NoError(t, app.Err())

	names := make([]string, len(installers))
	for i, in := range installers {
		names[i] = in.Name
	}

	require.ElementsMatch(t, []string{"build", "emulator", "flash"}, names)
}
