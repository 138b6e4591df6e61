//go:build !windows

package process

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// findPIDsByName scans /proc for processes whose command name or command
// line references the given name. Matching the command line as well catches
// interpreter-hosted services (e.g. a UI server running as a script under a
// generic interpreter binary).
func findPIDsByName(name string) ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}

	var pids []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		if processMatchesName(pid, name) {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

func processMatchesName(pid int, name string) bool {
	procDir := filepath.Join("/proc", strconv.Itoa(pid))

	// comm holds the executable name, truncated by the kernel to 15 chars
	if comm, err := os.ReadFile(filepath.Join(procDir, "comm")); err == nil {
		commName := strings.TrimSpace(string(comm))
		if commName == name || (len(name) > 15 && commName == name[:15]) {
			return true
		}
	}

	cmdline, err := os.ReadFile(filepath.Join(procDir, "cmdline"))
	if err != nil || len(cmdline) == 0 {
		return false
	}
	for _, arg := range bytes.Split(cmdline, []byte{0}) {
		if len(arg) == 0 {
			continue
		}
		base := filepath.Base(string(arg))
		if base == name || strings.HasPrefix(base, name+".") {
			return true
		}
	}
	return false
}
