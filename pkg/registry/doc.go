// Package registry holds the set of commands mach knows about.
//
// Commands are declared as data with Command and ArgumentSpec and bound to
// their handlers in one of two ways:
//
//   - Provide scans the methods of a provider type and registers every
//     method that has a declaration. The provider is constructed with a fresh
//     *handler.Base for each invocation.
//   - RegisterFunc registers a plain function.
//
// A handler may accept, in any order, a context.Context, a *handler.Base and
// Args holding the parsed command arguments. It may return nothing, an
// error, a value, or a value and an error. The value becomes the exit code.
//
//	decl := registry.Command("flash", "Flash a device with a B2G image.").
//		Argument(registry.ArgumentSpec{Flags: []string{"--serial-number", "-s"}}).
//		Argument(registry.ArgumentSpec{Flags: []string{"project"}, Choices: []string{"gecko", "gaia"}})
//
//	err := registry.Provide(r, "Flash", NewFlash, map[string]*registry.Declaration{"Flash": decl})
//
// Registering a name that already exists replaces the earlier descriptor in
// place.
package registry
