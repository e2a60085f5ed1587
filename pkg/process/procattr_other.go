//go:build !unix

package process

import "os/exec"

// trackChildren is a no-op where process groups aren't available; the child
// itself is still killed on cancellation.
func trackChildren(*exec.Cmd) {}
