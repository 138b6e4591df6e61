//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// setupProcessAttributes configures Unix-specific process attributes
func setupProcessAttributes(cmd *exec.Cmd) {
	// A new process group detaches the service from the orchestrator's
	// terminal signals and lets termination address the whole tree via -pid
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
