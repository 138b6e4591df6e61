package process

import (
	"context"
	"os"
	"time"

	"github.com/core-tools/hsu-stackup/pkg/errors"
	"github.com/core-tools/hsu-stackup/pkg/logging"
)

type ReapConfig struct {
	ProcessNames []string      `yaml:"process_names"`
	GracePeriod  time.Duration `yaml:"grace_period,omitempty"`
}

// Reap terminates any previously running processes matching the configured
// process names, then waits the grace period so ports are released before a
// fresh launch. Absence of matching processes is success, not an error.
// Returns the number of processes that were asked to terminate.
func Reap(ctx context.Context, config ReapConfig, logger logging.Logger) (int, error) {
	if ctx == nil {
		return 0, errors.NewValidationError("context cannot be nil", nil)
	}
	if err := ValidateReapConfig(config); err != nil {
		return 0, errors.NewValidationError("invalid reap configuration", err)
	}

	self := os.Getpid()
	seen := make(map[int]bool)
	var pids []int
	for _, name := range config.ProcessNames {
		found, err := findPIDsByName(name)
		if err != nil {
			return 0, errors.NewDiscoveryError("failed to enumerate processes", err).WithContext("process_name", name)
		}
		for _, pid := range found {
			if pid == self || seen[pid] {
				continue
			}
			seen[pid] = true
			pids = append(pids, pid)
		}
	}

	if len(pids) == 0 {
		logger.Debugf("No stale processes found, names: %v", config.ProcessNames)
		return 0, nil
	}

	logger.Infof("Reaping %d stale processes, names: %v, pids: %v", len(pids), config.ProcessNames, pids)

	errorCollection := errors.NewErrorCollection()
	for _, pid := range pids {
		if err := SendTerminationSignal(pid); err != nil {
			// The process may have exited between enumeration and signal
			if alive, _ := IsAlive(pid); !alive {
				continue
			}
			logger.Warnf("Failed to terminate stale process, PID: %d, error: %v", pid, err)
			errorCollection.Add(errors.NewProcessError("failed to terminate stale process", err).WithContext("pid", pid))
		}
	}

	grace := config.GracePeriod
	if grace > 0 {
		select {
		case <-time.After(grace):
		case <-ctx.Done():
			return len(pids), errors.NewCancelledError("reaping cancelled during grace period", ctx.Err())
		}
	}

	return len(pids), errorCollection.ToError()
}
