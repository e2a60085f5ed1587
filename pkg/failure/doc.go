// Package failure attributes a failed command invocation to its origin.
//
// A failure is one of:
//
//   - Command: the invoked handler's own code failed
//   - Module: code the handler called into failed
//   - Framework: the dispatcher itself failed
//
// Attribution is explicit first: errors wrapped with Delegate always count as
// Module failures, which is how the handler base and process runner mark
// their errors. Otherwise the frames of the failure (from a recovered panic,
// or from the deepest github.com/pkg/errors stack in the chain) are cut at
// the dispatch boundary, runtime/reflect plumbing is dropped, and the
// failure is a Command failure when every remaining frame belongs to the
// handler's package.
package failure
