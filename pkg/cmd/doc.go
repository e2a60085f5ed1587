// Package cmd assembles the mach application.
//
// The application is an fx graph: configuration (config.Module), logging
// (logging.Module), command providers and this package's Module, which
// builds the *mach.Mach every invocation runs through.
//
// # Command Providers
//
// Providers contribute a registry.Installer to the "providers" value group:
//
//	var Module = fx.Module("b2g",
//		fx.Provide(
//			fx.Annotate(flash, fx.ResultTags(`group:"providers"`)),
//		),
//	)
//
// Installers run in name order. Commands declared in YAML manifests on the
// search path (see the loader package) are registered after them, so a
// manifest can replace a built-in command.
//
// # Running
//
// Main builds the graph, starts it, runs the invocation and stops it again:
//
//	os.Exit(cmd.Main(ctx, os.Args[1:], b2g.Module))
package cmd
