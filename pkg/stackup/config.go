package stackup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/core-tools/hsu-stackup/pkg/errors"
	"github.com/core-tools/hsu-stackup/pkg/monitoring"
	"github.com/core-tools/hsu-stackup/pkg/preconditions"
	"github.com/core-tools/hsu-stackup/pkg/process"

	"gopkg.in/yaml.v3"
)

// StackConfig represents the top-level configuration file structure
type StackConfig struct {
	Stack    StackOptions    `yaml:"stack"`
	Services []ServiceConfig `yaml:"services"`
}

// StackOptions represents stack-level configuration
type StackOptions struct {
	EnvironmentDir  string        `yaml:"environment_dir"`
	InterpreterPath string        `yaml:"interpreter_path,omitempty"` // relative to environment_dir
	LogLevel        string        `yaml:"log_level,omitempty"`
	ReapGracePeriod time.Duration `yaml:"reap_grace_period,omitempty"`
	OpenBrowser     *bool         `yaml:"open_browser,omitempty"` // pointer to distinguish unset from false
}

// ServiceConfig represents a single service in launch order
type ServiceConfig struct {
	ID      string `yaml:"id"`
	Enabled *bool  `yaml:"enabled,omitempty"`

	// Stale instances of these process names are reaped before launch
	ProcessNames []string `yaml:"process_names,omitempty"`

	// Launch. A relative executable path is resolved against environment_dir.
	Execution process.ExecutionConfig `yaml:"execution"`

	// Optional verify-and-repair preconditions
	Dependency *preconditions.DependencyConfig `yaml:"dependency,omitempty"`
	EntryPoint *preconditions.EntryPointConfig `yaml:"entry_point,omitempty"`

	// Readiness probing
	Probe monitoring.ProbeConfig `yaml:"probe"`

	// URL opened in the browser once the run completes (frontend only)
	OpenURL string `yaml:"open_url,omitempty"`
}

// LoadConfigFromFile loads stack configuration from a YAML file
func LoadConfigFromFile(filename string) (*StackConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
	}

	var config StackConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML configuration", err).WithContext("filename", filename)
	}

	if err := setConfigDefaults(&config); err != nil {
		return nil, errors.NewValidationError("failed to apply configuration defaults", err)
	}

	return &config, nil
}

// ValidateConfig validates the entire configuration structure
func ValidateConfig(config *StackConfig) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	if err := validateStackOptions(&config.Stack); err != nil {
		return errors.NewValidationError("invalid stack configuration", err)
	}

	if err := validateServicesConfig(config.Services); err != nil {
		return errors.NewValidationError("invalid services configuration", err)
	}

	return nil
}

// setConfigDefaults applies default values to configuration
func setConfigDefaults(config *StackConfig) error {
	if config.Stack.LogLevel == "" {
		config.Stack.LogLevel = "info"
	}
	if config.Stack.InterpreterPath == "" {
		config.Stack.InterpreterPath = preconditions.DefaultInterpreterPath()
	}
	if config.Stack.ReapGracePeriod == 0 {
		config.Stack.ReapGracePeriod = 2 * time.Second
	}
	if config.Stack.OpenBrowser == nil {
		open := true
		config.Stack.OpenBrowser = &open
	}

	for i := range config.Services {
		service := &config.Services[i]

		// Default enabled to true if not specified
		if service.Enabled == nil {
			enabled := true
			service.Enabled = &enabled
		}

		// Resolve relative executables against the environment directory
		if service.Execution.ExecutablePath != "" && !filepath.IsAbs(service.Execution.ExecutablePath) && config.Stack.EnvironmentDir != "" {
			service.Execution.ExecutablePath = filepath.Join(config.Stack.EnvironmentDir, service.Execution.ExecutablePath)
		}

		if err := setProbeDefaults(&service.Probe, i); err != nil {
			return err
		}
	}

	return nil
}

func setProbeDefaults(probe *monitoring.ProbeConfig, serviceIndex int) error {
	if probe.RunOptions.Timeout == 0 {
		probe.RunOptions.Timeout = 5 * time.Second
	}
	if probe.RunOptions.Interval == 0 {
		probe.RunOptions.Interval = 1 * time.Second
	}
	if probe.RunOptions.BackoffRate == 0 {
		probe.RunOptions.BackoffRate = 1.5
	}
	if probe.RunOptions.ReadyDeadline == 0 {
		// The first service of the stack historically warms up in ~8s,
		// later ones take longer since they import the UI toolkit
		if serviceIndex == 0 {
			probe.RunOptions.ReadyDeadline = 8 * time.Second
		} else {
			probe.RunOptions.ReadyDeadline = 12 * time.Second
		}
	}
	return nil
}

// GetConfigSummary returns a human-readable summary of the configuration
// for debugging and operational visibility
func GetConfigSummary(config *StackConfig) ConfigSummary {
	if config == nil {
		return ConfigSummary{Error: "configuration is nil"}
	}

	summary := ConfigSummary{
		EnvironmentDir: config.Stack.EnvironmentDir,
		LogLevel:       config.Stack.LogLevel,
		Services:       make([]ServiceSummary, 0, len(config.Services)),
	}

	for _, service := range config.Services {
		enabled := false
		if service.Enabled != nil {
			enabled = *service.Enabled
		}

		serviceSummary := ServiceSummary{
			ID:             service.ID,
			Enabled:        enabled,
			ExecutablePath: service.Execution.ExecutablePath,
			ProbeType:      string(service.Probe.Type),
			HasDependency:  service.Dependency != nil,
			HasEntryPoint:  service.EntryPoint != nil,
		}

		summary.Services = append(summary.Services, serviceSummary)
	}

	summary.TotalServices = len(summary.Services)
	for _, service := range summary.Services {
		if service.Enabled {
			summary.EnabledServices++
		}
	}

	return summary
}

// ConfigSummary provides a high-level overview of configuration
type ConfigSummary struct {
	EnvironmentDir  string           `json:"environment_dir"`
	LogLevel        string           `json:"log_level"`
	TotalServices   int              `json:"total_services"`
	EnabledServices int              `json:"enabled_services"`
	Services        []ServiceSummary `json:"services"`
	Error           string           `json:"error,omitempty"`
}

// ServiceSummary provides a summary of service configuration
type ServiceSummary struct {
	ID             string `json:"id"`
	Enabled        bool   `json:"enabled"`
	ExecutablePath string `json:"executable_path,omitempty"`
	ProbeType      string `json:"probe_type,omitempty"`
	HasDependency  bool   `json:"has_dependency"`
	HasEntryPoint  bool   `json:"has_entry_point"`
}

func (s ConfigSummary) String() string {
	return fmt.Sprintf("environment: %s, services: %d (%d enabled)",
		s.EnvironmentDir, s.TotalServices, s.EnabledServices)
}
