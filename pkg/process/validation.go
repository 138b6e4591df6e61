package process

import (
	"strings"

	"github.com/core-tools/hsu-stackup/pkg/errors"
)

// ValidateExecutionConfig validates execution configuration
func ValidateExecutionConfig(config ExecutionConfig) error {
	if config.ExecutablePath == "" {
		return errors.NewValidationError("executable path cannot be empty", nil)
	}

	if strings.TrimSpace(config.ExecutablePath) != config.ExecutablePath {
		return errors.NewValidationError("executable path cannot have leading or trailing whitespace", nil)
	}

	for i, env := range config.Environment {
		if !strings.Contains(env, "=") {
			return errors.NewValidationError("environment entries must be in KEY=VALUE form", nil).
				WithContext("entry", env).WithContext("index", i)
		}
	}

	return nil
}

// ValidateReapConfig validates reaper configuration
func ValidateReapConfig(config ReapConfig) error {
	for _, name := range config.ProcessNames {
		if strings.TrimSpace(name) == "" {
			return errors.NewValidationError("process name cannot be empty", nil)
		}
	}

	if config.GracePeriod < 0 {
		return errors.NewValidationError("grace period cannot be negative", nil)
	}

	return nil
}
