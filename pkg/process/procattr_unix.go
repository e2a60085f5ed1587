//go:build unix

package process

import (
	"os/exec"
	"syscall"
)

// trackChildren puts the child in its own process group so cancellation can
// take down everything it spawned.
func trackChildren(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}

		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
