package stackup

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/core-tools/hsu-stackup/pkg/errors"
	"github.com/core-tools/hsu-stackup/pkg/monitoring"
	"github.com/core-tools/hsu-stackup/pkg/process"
)

// ValidateServiceID validates service ID format and constraints
func ValidateServiceID(id string) error {
	if id == "" {
		return errors.NewValidationError("service ID cannot be empty", nil)
	}

	if len(id) > 64 {
		return errors.NewValidationError("service ID cannot exceed 64 characters", nil)
	}

	for _, char := range id {
		if !isValidIDChar(char) {
			return errors.NewValidationError("service ID contains invalid characters: only letters, numbers, hyphens, and underscores are allowed", nil)
		}
	}

	return nil
}

func isValidIDChar(char rune) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9') ||
		char == '-' || char == '_'
}

// ValidatePort validates port number
func ValidatePort(port int) error {
	if port <= 0 || port > 65535 {
		return errors.NewValidationError("port must be between 1 and 65535", nil)
	}
	return nil
}

// ValidateNetworkAddress validates network address format
func ValidateNetworkAddress(address string) error {
	if address == "" {
		return errors.NewValidationError("network address cannot be empty", nil)
	}

	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return errors.NewValidationError("invalid network address format: "+address, err)
	}

	if host == "" {
		return errors.NewValidationError("host cannot be empty in address: "+address, nil)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return errors.NewValidationError("invalid port in address: "+address, err)
	}

	return ValidatePort(port)
}

func validateStackOptions(options *StackOptions) error {
	if options.EnvironmentDir == "" {
		return errors.NewValidationError("environment directory is required", nil)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if options.LogLevel != "" {
		valid := false
		for _, level := range validLogLevels {
			if options.LogLevel == level {
				valid = true
				break
			}
		}
		if !valid {
			return errors.NewValidationError(
				fmt.Sprintf("invalid log level: %s", options.LogLevel),
				nil,
			).WithContext("valid_levels", "debug, info, warn, error")
		}
	}

	if options.ReapGracePeriod < 0 {
		return errors.NewValidationError("reap grace period cannot be negative", nil)
	}

	return nil
}

func validateServicesConfig(services []ServiceConfig) error {
	if len(services) == 0 {
		return errors.NewValidationError("at least one service must be configured", nil)
	}

	seenIDs := make(map[string]int)
	for i, service := range services {
		if err := ValidateServiceID(service.ID); err != nil {
			return errors.NewValidationError(
				fmt.Sprintf("invalid service ID at index %d", i),
				err,
			).WithContext("service_id", service.ID)
		}

		if prevIndex, exists := seenIDs[service.ID]; exists {
			return errors.NewValidationError(
				fmt.Sprintf("duplicate service ID '%s' found at indices %d and %d", service.ID, prevIndex, i),
				nil,
			)
		}
		seenIDs[service.ID] = i

		if err := process.ValidateExecutionConfig(service.Execution); err != nil {
			return errors.NewValidationError(
				fmt.Sprintf("invalid execution configuration for service at index %d", i),
				err,
			).WithContext("service_id", service.ID)
		}

		if err := process.ValidateReapConfig(process.ReapConfig{ProcessNames: service.ProcessNames}); err != nil {
			return errors.NewValidationError(
				fmt.Sprintf("invalid reap targets for service at index %d", i),
				err,
			).WithContext("service_id", service.ID)
		}

		if err := monitoring.ValidateProbeConfig(service.Probe); err != nil {
			return errors.NewValidationError(
				fmt.Sprintf("invalid probe configuration for service at index %d", i),
				err,
			).WithContext("service_id", service.ID)
		}

		if service.Dependency != nil {
			if service.Dependency.Module == "" {
				return errors.NewValidationError(
					fmt.Sprintf("dependency module is required for service at index %d", i),
					nil,
				).WithContext("service_id", service.ID)
			}
			if service.Dependency.PinnedVersion == "" {
				return errors.NewValidationError(
					fmt.Sprintf("dependency pinned version is required for service at index %d", i),
					nil,
				).WithContext("service_id", service.ID)
			}
		}

		if service.EntryPoint != nil && service.EntryPoint.Path == "" {
			return errors.NewValidationError(
				fmt.Sprintf("entry-point path is required for service at index %d", i),
				nil,
			).WithContext("service_id", service.ID)
		}

		if service.OpenURL != "" {
			if !strings.HasPrefix(service.OpenURL, "http://") && !strings.HasPrefix(service.OpenURL, "https://") {
				return errors.NewValidationError(
					fmt.Sprintf("open URL must use http or https scheme for service at index %d", i),
					nil,
				).WithContext("service_id", service.ID).WithContext("open_url", service.OpenURL)
			}
		}
	}

	return nil
}
