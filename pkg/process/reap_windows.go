//go:build windows

package process

import (
	"encoding/csv"
	"os/exec"
	"strconv"
	"strings"
)

// findPIDsByName enumerates processes by image name via tasklist.
func findPIDsByName(name string) ([]int, error) {
	image := name
	if !strings.HasSuffix(strings.ToLower(image), ".exe") {
		image += ".exe"
	}

	cmd := exec.Command("tasklist", "/FO", "CSV", "/NH", "/FI", "IMAGENAME eq "+image)
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(string(output))
	// tasklist reports "INFO: No tasks are running..." as plain text
	if text == "" || strings.HasPrefix(text, "INFO:") {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(text))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var pids []int
	for _, record := range records {
		if len(record) < 2 {
			continue
		}
		pid, err := strconv.Atoi(record[1])
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}
