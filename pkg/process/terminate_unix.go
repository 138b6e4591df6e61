//go:build !windows

package process

import (
	"syscall"
)

// SendTerminationSignal sends SIGTERM to the process group on Unix systems.
// The negative PID addresses the entire process tree (parent + children).
// Stale processes found by the reaper are usually not group leaders, so when
// no group with that id exists the signal falls back to the process itself.
func SendTerminationSignal(pid int) error {
	err := syscall.Kill(-pid, syscall.SIGTERM)
	if err == syscall.ESRCH {
		return syscall.Kill(pid, syscall.SIGTERM)
	}
	return err
}
