package loader_test

import (
	"context"
	_ "embed"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pseudomuto/mach/pkg/config"
	"github.com/pseudomuto/mach/pkg/consts"
	. "github.com/pseudomuto/mach/pkg/loader"
	"github.com/pseudomuto/mach/pkg/registry"
	"github.com/pseudomuto/mach/pkg/testutil"
	"github.com/stretchr/testify/require"
)

var (
	//go:embed testdata/b2g.yaml
	b2gManifest string

	//go:embed testdata/b2g.hcl
	b2gHCLManifest []byte
)

func commandsDir(root string) string {
	return filepath.Join(append([]string{root}, consts.CommandsDir...)...)
}

func writeManifests(t *testing.T, root string, files map[string]string) {
	t.Helper()

	testutil.WriteFiles(t, commandsDir(root), files)
}

func command(name string) string {
	return "commands:\n  - name: " + name + "\n    script: " + name + ".sh\n"
}

func TestLoad(t *testing.T) {
	t.Run("loads in lexicographic order", func(t *testing.T) {
		first, second := t.TempDir(), t.TempDir()
		writeManifests(t, first, map[string]string{
			"zeta.yaml": command("zeta"),
			"alpha.yml": command("alpha"),
		})
		writeManifests(t, second, map[string]string{"mid.yaml": command("mid")})

		r := registry.New()
		l := New(r, first, second)
		require.NoError(t, l.Load())
		require.Equal(t, []string{"alpha", "zeta", "mid"}, r.Names())
		require.Equal(t, []string{
			filepath.Join(commandsDir(first), "alpha.yml"),
			filepath.Join(commandsDir(first), "zeta.yaml"),
			filepath.Join(commandsDir(second), "mid.yaml"),
		}, l.Files())
	})

	t.Run("skips init files, nested dirs and other files", func(t *testing.T) {
		root := t.TempDir()
		writeManifests(t, root, map[string]string{
			"_init.yaml":       command("hidden"),
			"nested/more.yaml": command("nested"),
			"README.md":        "not a manifest",
			"build.yaml":       command("build"),
			"build.yaml.orig":  command("backup"),
		})

		r := registry.New()
		require.NoError(t, New(r, root).Load())
		require.Equal(t, []string{"build"}, r.Names())
	})

	t.Run("hcl manifests", func(t *testing.T) {
		root := t.TempDir()
		writeManifests(t, root, map[string]string{
			"b2g.hcl":   string(b2gHCLManifest),
			"tools.yml": command("lint"),
		})

		r := registry.New()
		require.NoError(t, New(r, root).Load())
		require.Equal(t, []string{"flash", "push", "lint"}, r.Names())
	})

	t.Run("missing directories are ignored", func(t *testing.T) {
		r := registry.New()
		require.NoError(t, New(r, filepath.Join(t.TempDir(), "nope")).Load())
		require.Zero(t, r.Len())
	})

	t.Run("scans only once", func(t *testing.T) {
		root := t.TempDir()
		writeManifests(t, root, map[string]string{"b2g.yaml": b2gManifest})

		r := registry.New()
		l := New(r, root)
		require.NoError(t, l.Load())
		require.NoError(t, l.Load())
		require.Equal(t, []string{"flash", "push"}, r.Names())
	})

	t.Run("first bad manifest aborts", func(t *testing.T) {
		root := t.TempDir()
		writeManifests(t, root, map[string]string{
			"a.yaml": "commands:\n  - name: a\n    scrip: a.sh\n",
			"b.yaml": command("b"),
		})

		r := registry.New()
		l := New(r, root)
		err := l.Load()
		testutil.RequireError(t, err, "failed to load command manifest", "a.yaml")
		require.Zero(t, r.Len())
		require.Empty(t, l.Files())
	})

	t.Run("retries after a failure", func(t *testing.T) {
		root := t.TempDir()
		writeManifests(t, root, map[string]string{"a.yaml": "commands: {"})

		r := registry.New()
		l := New(r, root)
		require.Error(t, l.Load())

		writeManifests(t, root, map[string]string{"a.yaml": command("a")})
		require.NoError(t, l.Load())
		require.Equal(t, []string{"a"}, r.Names())
	})

	t.Run("command without a script", func(t *testing.T) {
		root := t.TempDir()
		writeManifests(t, root, map[string]string{"a.yaml": "commands:\n  - name: a\n"})

		err := New(registry.New(), root).Load()
		testutil.RequireError(t, err, "failed to install command manifest", "command a has no script")
	})
}

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest(strings.NewReader(b2gManifest))
	require.NoError(t, err)
	require.Len(t, m.Commands, 2)

	flash := m.Commands[0]
	require.Equal(t, "flash", flash.Name)
	require.True(t, flash.RequireUnixEnvironment)
	require.True(t, flash.IgnoreErrors)
	require.Equal(t, []string{"--serial-number", "-s"}, flash.Arguments[0].Flags)
	require.Equal(t, []string{"gecko", "gaia", "time"}, flash.Arguments[1].Choices)

	require.Equal(t, map[string]string{"ADB": "/usr/bin/adb"}, m.Commands[1].AppendEnv)

	empty, err := LoadManifest(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, empty.Commands)
}

func TestLoadHCLManifest(t *testing.T) {
	t.Run("matches yaml", func(t *testing.T) {
		fromHCL, err := LoadHCLManifest(b2gHCLManifest, "b2g.hcl")
		require.NoError(t, err)

		fromYAML, err := LoadManifest(strings.NewReader(b2gManifest))
		require.NoError(t, err)

		require.Equal(t, fromYAML.Commands[0], fromHCL.Commands[0])
		require.Equal(t, map[string]string{"ADB": "/usr/bin/adb"}, fromHCL.Commands[1].AppendEnv)
	})

	t.Run("defaults", func(t *testing.T) {
		m, err := LoadHCLManifest(b2gHCLManifest, "b2g.hcl")
		require.NoError(t, err)

		args := m.Commands[1].Arguments
		require.Equal(t, 3, args[0].Default)
		require.Equal(t, []string{"a.img", "b.img"}, args[1].Default)
		require.Equal(t, 0.5, args[2].Default)
	})

	tests := []struct {
		name string
		src  string
		err  string
	}{
		{name: "syntax", src: `command "x" {`, err: "failed to parse command manifest"},
		{name: "missing script", src: `command "x" {}`, err: "failed to decode command manifest"},
		{
			name: "unknown attribute",
			src:  "command \"x\" {\n  script = \"x.sh\"\n  scrip = \"y\"\n}\n",
			err:  "failed to decode command manifest",
		},
		{
			name: "object default",
			src:  "command \"x\" {\n  script = \"x.sh\"\n  argument {\n    flags = [\"--o\"]\n    default = { a = 1 }\n  }\n}\n",
			err:  "unsupported default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadHCLManifest([]byte(tt.src), "bad.hcl")
			testutil.RequireError(t, err, tt.err)
		})
	}
}

func TestCommand(t *testing.T) {
	m, err := LoadManifest(strings.NewReader(b2gManifest))
	require.NoError(t, err)
	flash, push := m.Commands[0], m.Commands[1]

	tests := []struct {
		name string
		cmd  CommandManifest
		args registry.Args
		want []string
	}{
		{
			name: "flash with serial number",
			cmd:  flash,
			args: registry.Args{"serial_number": "ABC123", "project": "gaia"},
			want: []string{"/work/flash.sh", "ABC123", "gaia"},
		},
		{
			name: "flash without serial number",
			cmd:  flash,
			args: registry.Args{"project": "time"},
			want: []string{"/work/flash.sh", "time"},
		},
		{
			name: "flags",
			cmd:  push,
			args: registry.Args{"wipe": true, "reboot": false, "file": []string{"a", "b"}, "retries": 3},
			want: []string{"/opt/b2g/push.sh", "--wipe", "--no-reboot", "a", "b", "3"},
		},
		{
			name: "unset flags",
			cmd:  push,
			args: registry.Args{"wipe": false, "reboot": true},
			want: []string{"/opt/b2g/push.sh"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.cmd.Command("/work", tt.args))
		})
	}
}

func TestInstalledHandler(t *testing.T) {
	m, err := LoadManifest(strings.NewReader(b2gManifest))
	require.NoError(t, err)

	r := registry.New()
	require.NoError(t, m.Install(r))

	d, ok := r.Lookup("flash")
	require.True(t, ok)
	require.Equal(t, "Flash a device with a B2G image.", d.Help)
	require.Equal(t, "github.com/pseudomuto/mach/pkg/loader", d.Package)

	fixture := testutil.NewBase(t, "/work")
	fixture.Runner.Status = 2

	target, err := d.Bind(fixture.Base)
	require.NoError(t, err)

	result, err := target.Call(context.Background(), registry.Args{"project": "gecko"})
	require.NoError(t, err)
	require.Equal(t, 2, result)
	testutil.RequireCalls(t, fixture.Runner, []string{"/work/flash.sh", "gecko"})

	push, _ := r.Lookup("push")
	target, err = push.Bind(fixture.Base)
	require.NoError(t, err)

	_, err = target.Call(context.Background(), registry.Args{"reboot": true})
	require.Error(t, err)
	require.Contains(t, fixture.Runner.Last().Env, "ADB=/usr/bin/adb")
}

func TestSearchPath(t *testing.T) {
	env := map[string]string{consts.SearchPathEnv: strings.Join([]string{"/a", "", "/b"}, string(filepath.ListSeparator))}
	getenv := func(k string) string { return env[k] }

	cfg := &config.Config{SearchPath: []string{"/conf"}}
	require.Equal(t, []string{"/conf", "/a", "/b", "/work"}, SearchPath(cfg, getenv, "/work"))
	require.Equal(t, []string{"/work"}, SearchPath(nil, func(string) string { return "" }, "/work"))
}
