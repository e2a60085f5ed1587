package b2g

import (
	"context"
	"path/filepath"

	"github.com/pseudomuto/mach/pkg/handler"
	"github.com/pseudomuto/mach/pkg/registry"
)

// Projects are the things flash can put on a device.
var Projects = []string{"gecko", "gaia", "time"}

// Flash flashes devices.
type Flash struct {
	*handler.Base
}

func newFlash(b *handler.Base) *Flash {
	return &Flash{Base: b}
}

// Flash runs flash.sh with the optional serial number followed by the
// project.
func (f *Flash) Flash(ctx context.Context, args registry.Args) (int, error) {
	cmd := []string{filepath.Join(f.Cwd, "flash.sh")}
	if serial, ok := args.StringOK("serial_number"); ok {
		cmd = append(cmd, serial)
	}

	cmd = append(cmd, args.String("project"))

	return f.RunCommand(ctx, handler.RunOptions{
		Args:                   cmd,
		LogName:                "b2g.flash",
		RequireUnixEnvironment: true,
		IgnoreErrors:           true,
	})
}

func flash() registry.Installer {
	decl := registry.Command("flash", "Flash a device with a B2G image.").
		Argument(registry.ArgumentSpec{
			Flags: []string{"--serial-number", "-s"},
			Help:  "Serial number to pass to ADB.",
		}).
		Argument(registry.ArgumentSpec{
			Flags:   []string{"project"},
			Choices: Projects,
			Help:    "What to flash on the device.",
		})

	return registry.Installer{
		Name: "flash",
		Install: func(r *registry.Registry) error {
			return registry.Provide(r, "Flash", newFlash, map[string]*registry.Declaration{"Flash": decl})
		},
	}
}
