// Package handler provides Base, the capabilities shared by every class-based
// command provider: the working directory, settings, a logger and a helper
// for running external programs.
//
// Providers embed or hold a *Base handed to them by the dispatcher:
//
//	type Build struct {
//		*handler.Base
//	}
//
//	func (b *Build) Build(ctx context.Context) (int, error) {
//		return b.RunCommand(ctx, handler.RunOptions{
//			Args:    []string{filepath.Join(b.Cwd, "build.sh")},
//			LogName: "build",
//		})
//	}
package handler
