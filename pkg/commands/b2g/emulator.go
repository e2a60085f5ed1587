package b2g

import (
	"context"
	"path/filepath"

	"github.com/pseudomuto/mach/pkg/handler"
	"github.com/pseudomuto/mach/pkg/registry"
)

// Emulator runs the B2G emulator.
type Emulator struct {
	*handler.Base
}

func newEmulator(b *handler.Base) *Emulator {
	return &Emulator{Base: b}
}

// RunEmulator runs run-emulator.sh.
func (e *Emulator) RunEmulator(ctx context.Context) (int, error) {
	return e.RunCommand(ctx, handler.RunOptions{
		Args:                   []string{filepath.Join(e.Cwd, "run-emulator.sh")},
		LogName:                "b2g.emulator",
		RequireUnixEnvironment: true,
		IgnoreErrors:           true,
	})
}

func emulator() registry.Installer {
	return registry.Installer{
		Name: "emulator",
		Install: func(r *registry.Registry) error {
			return registry.Provide(r, "Emulator", newEmulator, map[string]*registry.Declaration{
				"RunEmulator": registry.Command("run-emulator", "Run a B2G emulator."),
			})
		},
	}
}
