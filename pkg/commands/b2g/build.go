package b2g

import (
	"context"
	"path/filepath"

	"github.com/pseudomuto/mach/pkg/handler"
	"github.com/pseudomuto/mach/pkg/registry"
)

// Build builds B2G.
type Build struct {
	*handler.Base
}

func newBuild(b *handler.Base) *Build {
	return &Build{Base: b}
}

// Build runs build.sh.
func (b *Build) Build(ctx context.Context) (int, error) {
	return b.RunCommand(ctx, handler.RunOptions{
		Args:                   []string{filepath.Join(b.Cwd, "build.sh")},
		LogName:                "b2g.build",
		RequireUnixEnvironment: true,
		IgnoreErrors:           true,
	})
}

func build() registry.Installer {
	return registry.Installer{
		Name: "build",
		Install: func(r *registry.Registry) error {
			return registry.Provide(r, "Build", newBuild, map[string]*registry.Declaration{
				"Build": registry.Command("build", "Build B2G."),
			})
		},
	}
}
