package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/config"
	"github.com/pseudomuto/mach/pkg/loader"
	"github.com/pseudomuto/mach/pkg/logging"
	"github.com/pseudomuto/mach/pkg/mach"
	"github.com/pseudomuto/mach/pkg/registry"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Config     *config.Config
	LogManager *logging.Manager
	Installers []registry.Installer `group:"providers"`

	// Stdout and Stderr default to the process' streams
	Stdout io.Writer `name:"stdout" optional:"true"`
	Stderr io.Writer `name:"stderr" optional:"true"`
}

// NewMach registers the commands of every installer, then the commands
// declared in manifests on the search path, and returns the Mach that
// dispatches them.
//
// The search path is the configured search_path, then $MACH_PATH and finally
// the current directory.
func NewMach(p Params) (*mach.Mach, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get current working directory")
	}

	r := registry.New()
	if err := registry.Install(r, p.Installers); err != nil {
		return nil, err
	}

	if err := loader.New(r, loader.SearchPath(p.Config, os.Getenv, cwd)...).Load(); err != nil {
		return nil, err
	}

	return mach.New(mach.Params{
		Cwd:        cwd,
		Registry:   r,
		Settings:   p.Config.GetSettings(),
		LogManager: p.LogManager,
		Stdout:     p.Stdout,
		Stderr:     p.Stderr,
	}), nil
}

// Main runs the invocation args (without the program name) and returns the
// exit code. opts are added to the application, typically command provider
// modules.
func Main(ctx context.Context, args []string, opts ...fx.Option) int {
	var m *mach.Mach

	app := fx.New(
		fx.NopLogger,
		config.Module,
		logging.Module,
		Module,
		fx.Options(opts...),
		fx.Populate(&m),
	)

	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "mach: failed to start: %v\n", err)
		return 1
	}

	code := m.Run(ctx, args)

	// ctx may be cancelled at this point
	if err := app.Stop(context.WithoutCancel(ctx)); err != nil {
		fmt.Fprintf(os.Stderr, "mach: failed to stop: %v\n", err)
	}

	return code
}
