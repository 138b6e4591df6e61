package stackup

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/core-tools/hsu-stackup/pkg/logging"
)

// Run loads, validates and executes one orchestration pass from a
// configuration file. A SIGINT/SIGTERM during the run cancels probing and
// repairs; processes already launched stay up since they are detached.
func Run(configFile string, logger logging.Logger) error {
	logger.Infof("Stack runner starting, config: %s", configFile)

	config, err := LoadConfigFromFile(configFile)
	if err != nil {
		logger.Errorf("Failed to load configuration: %v", err)
		return err
	}

	if err := ValidateConfig(config); err != nil {
		logger.Errorf("Configuration validation failed: %v", err)
		return err
	}

	summary := GetConfigSummary(config)
	logger.Infof("Configuration loaded, %s", summary.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator := NewOrchestrator(config, logger)
	if err := orchestrator.Run(ctx); err != nil {
		logger.Errorf("Stack startup failed, state: %s, error: %v", orchestrator.State(), err)
		return err
	}

	return nil
}

// ValidateConfigFile loads and validates a configuration file without
// running the stack, for use by the CLI --validate flag.
func ValidateConfigFile(configFile string, logger logging.Logger) error {
	config, err := LoadConfigFromFile(configFile)
	if err != nil {
		return err
	}

	if err := ValidateConfig(config); err != nil {
		return err
	}

	summary := GetConfigSummary(config)
	logger.Infof("Configuration is valid, %s", summary.String())
	for _, service := range summary.Services {
		logger.Infof("  service: %s, enabled: %t, executable: %s, probe: %s",
			service.ID, service.Enabled, service.ExecutablePath, service.ProbeType)
	}
	return nil
}
