//go:build !linux && !darwin && !windows

package stackup

import (
	"os/exec"
)

func openBrowser(url string) error {
	cmd := exec.Command("xdg-open", url)
	return cmd.Start()
}
