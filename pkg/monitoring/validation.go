package monitoring

import (
	"strings"

	"github.com/core-tools/hsu-stackup/pkg/errors"
)

// ValidateProbeConfig validates probe configuration
func ValidateProbeConfig(config ProbeConfig) error {
	// Validate run options
	if err := ValidateProbeRunOptions(config.RunOptions); err != nil {
		return errors.NewValidationError("invalid probe run options", err)
	}

	// Validate type-specific configuration
	switch config.Type {
	case ProbeTypeHTTP:
		if config.HTTP.URL == "" {
			return errors.NewValidationError("HTTP URL is required for HTTP probe", nil)
		}
		if !strings.HasPrefix(config.HTTP.URL, "http://") && !strings.HasPrefix(config.HTTP.URL, "https://") {
			return errors.NewValidationError("HTTP URL must use http or https scheme: "+config.HTTP.URL, nil)
		}

	case ProbeTypeTCP:
		if config.TCP.Address == "" {
			return errors.NewValidationError("TCP address is required for TCP probe", nil)
		}
		if config.TCP.Port <= 0 || config.TCP.Port > 65535 {
			return errors.NewValidationError("TCP port must be between 1 and 65535", nil)
		}

	case ProbeTypeGRPC:
		if config.GRPC.Address == "" {
			return errors.NewValidationError("gRPC address is required for gRPC probe", nil)
		}
		if !strings.Contains(config.GRPC.Address, ":") {
			return errors.NewValidationError("gRPC address must include a port: "+config.GRPC.Address, nil)
		}

	case ProbeTypeProcess:
		// Process probes need no additional configuration; the PID is
		// supplied after launch

	default:
		return errors.NewValidationError("unsupported probe type: "+string(config.Type), nil)
	}

	return nil
}

// ValidateProbeRunOptions validates probe run options
func ValidateProbeRunOptions(options ProbeRunOptions) error {
	if options.Timeout <= 0 {
		return errors.NewValidationError("probe timeout must be positive", nil)
	}

	if options.Interval <= 0 {
		return errors.NewValidationError("probe interval must be positive", nil)
	}

	if options.BackoffRate != 0 && options.BackoffRate < 1.0 {
		return errors.NewValidationError("probe backoff rate must be at least 1.0", nil)
	}

	if options.InitialDelay < 0 {
		return errors.NewValidationError("probe initial delay cannot be negative", nil)
	}

	if options.ReadyDeadline < 0 {
		return errors.NewValidationError("probe ready deadline cannot be negative", nil)
	}

	return nil
}
