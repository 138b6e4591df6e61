//go:build windows

package process

import (
	"fmt"
	"os/exec"
)

// SendTerminationSignal terminates the process tree on Windows. Console
// control events are unreliable across detached process groups, so taskkill
// with /T is used to take the whole tree down.
func SendTerminationSignal(pid int) error {
	cmd := exec.Command("taskkill", "/PID", fmt.Sprintf("%d", pid), "/T", "/F")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("taskkill failed for PID %d: %v, output: %s", pid, err, string(output))
	}
	return nil
}
