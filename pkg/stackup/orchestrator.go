package stackup

import (
	"context"
	"fmt"

	"github.com/core-tools/hsu-stackup/pkg/errors"
	"github.com/core-tools/hsu-stackup/pkg/logging"
	"github.com/core-tools/hsu-stackup/pkg/monitoring"
	"github.com/core-tools/hsu-stackup/pkg/preconditions"
	"github.com/core-tools/hsu-stackup/pkg/process"
)

// LaunchFunc starts a service process; injectable for testing
type LaunchFunc func(ctx context.Context, execution process.ExecutionConfig, id string, logger logging.Logger) (*process.Handle, error)

// OpenURLFunc opens a URL in the operator's browser; injectable for testing
type OpenURLFunc func(url string) error

// ServiceReport captures the per-service outcome of one orchestration run
type ServiceReport struct {
	ID            string
	PID           int
	Launched      bool
	UsingFallback bool
	Probe         monitoring.ProbeResult
	Warnings      []string
}

// Orchestrator executes the single-pass startup pipeline: reap stale
// processes, verify the runtime environment, then per service ensure
// preconditions, launch, and wait for readiness. Probe failures are
// advisory; environment and launch failures are fatal.
type Orchestrator struct {
	config  *StackConfig
	logger  logging.Logger
	sm      *RunStateMachine
	launch  LaunchFunc
	openURL OpenURLFunc
	reports []ServiceReport
}

func NewOrchestrator(config *StackConfig, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		config:  config,
		logger:  logger,
		sm:      NewRunStateMachine(logger),
		launch:  process.Launch,
		openURL: openBrowser,
	}
}

// State returns the current pipeline state
func (o *Orchestrator) State() RunState {
	return o.sm.Current()
}

// Reports returns the per-service outcomes collected so far
func (o *Orchestrator) Reports() []ServiceReport {
	reportsCopy := make([]ServiceReport, len(o.reports))
	copy(reportsCopy, o.reports)
	return reportsCopy
}

// Run executes the pipeline exactly once. The launched services are
// detached: they keep running after Run returns and after the orchestrator
// process exits.
func (o *Orchestrator) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}
	if o.sm.Current() != RunStateIdle {
		return errors.NewConflictError("orchestration already ran", nil).WithContext("state", string(o.sm.Current()))
	}

	if err := o.reapStaleProcesses(ctx); err != nil {
		// Leftover processes may still hold the ports; the readiness
		// probes will surface that, so reaping trouble is advisory
		o.logger.Warnf("Reaping stale processes incomplete: %v", err)
	}

	environment, err := o.verifyEnvironment(ctx)
	if err != nil {
		o.fail("environment verification failed")
		return err
	}

	for _, service := range o.enabledServices() {
		report, err := o.startService(ctx, service, environment)
		o.reports = append(o.reports, report)
		if err != nil {
			o.fail(fmt.Sprintf("service %s failed to start", service.ID))
			return err
		}
	}

	if err := o.sm.Transition(RunStateReportingStatus, "all services launched"); err != nil {
		return err
	}
	o.reportStatus()

	if o.shouldOpenBrowser() {
		if err := o.sm.Transition(RunStateOpeningBrowser, "stack is up"); err != nil {
			return err
		}
		o.openFrontend()
	}

	if err := o.sm.Transition(RunStateDone, "run complete"); err != nil {
		return err
	}
	o.logger.Infof("Stack startup complete")
	return nil
}

func (o *Orchestrator) fail(reason string) {
	if err := o.sm.Transition(RunStateFailed, reason); err != nil {
		o.logger.Errorf("Failed to record failure transition: %v", err)
	}
}

func (o *Orchestrator) enabledServices() []ServiceConfig {
	var enabled []ServiceConfig
	for _, service := range o.config.Services {
		if service.Enabled != nil && !*service.Enabled {
			o.logger.Infof("Skipping disabled service, id: %s", service.ID)
			continue
		}
		enabled = append(enabled, service)
	}
	return enabled
}

func (o *Orchestrator) reapStaleProcesses(ctx context.Context) error {
	if err := o.sm.Transition(RunStateReaping, "run started"); err != nil {
		return err
	}

	var names []string
	seen := make(map[string]bool)
	for _, service := range o.config.Services {
		for _, name := range service.ProcessNames {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	if len(names) == 0 {
		o.logger.Debugf("No reap targets configured")
		return nil
	}

	reaped, err := process.Reap(ctx, process.ReapConfig{
		ProcessNames: names,
		GracePeriod:  o.config.Stack.ReapGracePeriod,
	}, o.logger)
	if err != nil {
		return err
	}

	if reaped > 0 {
		o.logger.Infof("Reaped %d stale processes", reaped)
	}
	return nil
}

func (o *Orchestrator) verifyEnvironment(ctx context.Context) (*preconditions.RuntimeEnvironment, error) {
	if err := o.sm.Transition(RunStateVerifyingEnv, "reaping finished"); err != nil {
		return nil, err
	}

	environment := &preconditions.RuntimeEnvironment{
		Dir:             o.config.Stack.EnvironmentDir,
		InterpreterPath: o.config.Stack.InterpreterPath,
	}

	if err := preconditions.Ensure(ctx, environment, o.logger); err != nil {
		o.logger.Errorf("Runtime environment is missing, dir: %s, error: %v", environment.Dir, err)
		return nil, err
	}

	o.logger.Infof("Runtime environment verified, interpreter: %s", environment.Interpreter())
	return environment, nil
}

// startService runs the per-service pipeline segment: preconditions,
// launch, readiness wait. Precondition and probe trouble is recorded as
// warnings; a launch failure or a crash during the readiness wait is fatal.
func (o *Orchestrator) startService(ctx context.Context, service ServiceConfig, environment *preconditions.RuntimeEnvironment) (ServiceReport, error) {
	report := ServiceReport{ID: service.ID}

	serviceLogger := logging.NewLogger("service: "+service.ID+" , ", logging.LogFuncs{
		Debugf: o.logger.Debugf,
		Infof:  o.logger.Infof,
		Warnf:  o.logger.Warnf,
		Errorf: o.logger.Errorf,
	})

	if err := o.sm.Transition(RunStateRepairingDeps, "preparing "+service.ID); err != nil {
		return report, err
	}

	execution := service.Execution

	if service.Dependency != nil {
		dependency := &preconditions.ImportableDependency{
			Interpreter: environment.Interpreter(),
			Config:      *service.Dependency,
			Logger:      serviceLogger,
		}
		if err := preconditions.Ensure(ctx, dependency, serviceLogger); err != nil {
			// Launch is still attempted: the installed state on disk may
			// work even when the repair pass reported trouble
			warning := fmt.Sprintf("dependency precondition failed: %v", err)
			serviceLogger.Warnf("Proceeding to launch despite failed repair: %v", err)
			report.Warnings = append(report.Warnings, warning)
		}
	}

	if service.EntryPoint != nil {
		entryPoint := &preconditions.EntryPoint{Config: *service.EntryPoint}
		if err := preconditions.Ensure(ctx, entryPoint, serviceLogger); err != nil {
			warning := fmt.Sprintf("entry-point precondition failed: %v", err)
			serviceLogger.Warnf("Proceeding to launch without entry point: %v", err)
			report.Warnings = append(report.Warnings, warning)
		} else if entryPoint.UsingFallback() {
			report.UsingFallback = true
			serviceLogger.Warnf("Primary entry point missing, launching generated fallback: %s", entryPoint.EffectivePath())
			execution.Args = redirectEntryPoint(execution.Args, service.EntryPoint.Path, entryPoint.EffectivePath())
		}
	}

	if err := o.sm.Transition(RunStateLaunching, "preconditions done for "+service.ID); err != nil {
		return report, err
	}

	handle, err := o.launch(ctx, execution, service.ID, serviceLogger)
	if err != nil {
		o.logger.Errorf("Failed to launch service, id: %s, error: %v", service.ID, err)
		return report, errors.NewProcessError("failed to launch service", err).WithContext("service_id", service.ID)
	}
	report.Launched = true
	report.PID = handle.PID()

	if err := o.sm.Transition(RunStateProbing, "launched "+service.ID); err != nil {
		return report, err
	}

	prober := monitoring.NewProber(service.Probe, service.ID, serviceLogger)
	prober.SetProcessInfo(handle.PID())

	result, exit := o.waitReadyWatchingProcess(ctx, prober, handle)
	report.Probe = result

	if exit != nil {
		o.logger.Errorf("Service exited during startup, id: %s, exit code: %d, log: %s",
			service.ID, exit.Code, handle.LogPath())
		return report, errors.NewProcessError("service crashed on startup", exit.Err).
			WithContext("service_id", service.ID).
			WithContext("exit_code", exit.Code).
			WithContext("log_file", handle.LogPath())
	}

	if !result.Healthy {
		// Advisory: the service was launched detached and may simply
		// still be initializing
		warning := fmt.Sprintf("readiness probe failed: %s", result.Message)
		o.logger.Warnf("Service not confirmed healthy, id: %s, attempts: %d, message: %s",
			service.ID, result.Attempts, result.Message)
		report.Warnings = append(report.Warnings, warning)
	}

	// Lifecycle ownership passes to the operator
	if err := handle.Release(); err != nil {
		o.logger.Debugf("Failed to release process handle, id: %s, error: %v", service.ID, err)
	}

	return report, nil
}

// waitReadyWatchingProcess runs the readiness wait while watching for the
// process to exit underneath it, so crash-on-startup is detected directly
// instead of being inferred from probe timeouts.
func (o *Orchestrator) waitReadyWatchingProcess(ctx context.Context, prober *monitoring.Prober, handle *process.Handle) (monitoring.ProbeResult, *process.ExitStatus) {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultChan := make(chan monitoring.ProbeResult, 1)
	go func() {
		resultChan <- prober.WaitReady(waitCtx)
	}()

	select {
	case result := <-resultChan:
		return result, nil
	case status := <-handle.Done():
		cancel()
		result := <-resultChan
		return result, &status
	}
}

// redirectEntryPoint swaps the primary entry-point path in the launch
// arguments for the generated fallback file.
func redirectEntryPoint(args []string, primary, fallback string) []string {
	redirected := make([]string, len(args))
	for i, arg := range args {
		if arg == primary {
			redirected[i] = fallback
		} else {
			redirected[i] = arg
		}
	}
	return redirected
}

func (o *Orchestrator) reportStatus() {
	o.logger.Infof("Stack status:")
	for _, report := range o.reports {
		status := "UNHEALTHY"
		if report.Probe.Healthy {
			status = "HEALTHY"
		}
		o.logger.Infof("  service: %s, status: %s, PID: %d, probe attempts: %d, message: %s",
			report.ID, status, report.PID, report.Probe.Attempts, report.Probe.Message)
		for _, warning := range report.Warnings {
			o.logger.Warnf("  service: %s, warning: %s", report.ID, warning)
		}
	}
}

func (o *Orchestrator) shouldOpenBrowser() bool {
	if o.config.Stack.OpenBrowser != nil && !*o.config.Stack.OpenBrowser {
		return false
	}
	return o.frontendURL() != ""
}

func (o *Orchestrator) frontendURL() string {
	launched := make(map[string]bool)
	for _, report := range o.reports {
		launched[report.ID] = report.Launched
	}
	for _, service := range o.config.Services {
		if service.OpenURL != "" && launched[service.ID] {
			return service.OpenURL
		}
	}
	return ""
}

func (o *Orchestrator) openFrontend() {
	url := o.frontendURL()
	o.logger.Infof("Opening browser: %s", url)
	if err := o.openURL(url); err != nil {
		o.logger.Warnf("Failed to open browser, url: %s, error: %v", url, err)
	}
}
