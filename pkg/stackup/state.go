package stackup

import (
	"time"

	"github.com/core-tools/hsu-stackup/pkg/errors"
	"github.com/core-tools/hsu-stackup/pkg/logging"
)

// RunState represents the current phase of a stack orchestration run
type RunState string

const (
	// RunStateIdle is the initial state before Run() is called
	RunStateIdle RunState = "idle"

	// RunStateReaping means stale service processes are being terminated
	RunStateReaping RunState = "reaping"

	// RunStateVerifyingEnv means the runtime environment is being checked
	RunStateVerifyingEnv RunState = "verifying_env"

	// RunStateRepairingDeps means a service's preconditions are being ensured
	RunStateRepairingDeps RunState = "repairing_deps"

	// RunStateLaunching means a service process is being started
	RunStateLaunching RunState = "launching"

	// RunStateProbing means a launched service is being waited on for readiness
	RunStateProbing RunState = "probing"

	// RunStateReportingStatus means the final per-service report is produced
	RunStateReportingStatus RunState = "reporting_status"

	// RunStateOpeningBrowser means the frontend URL is being opened
	RunStateOpeningBrowser RunState = "opening_browser"

	// RunStateDone means the run completed
	RunStateDone RunState = "done"

	// RunStateFailed means the run aborted on a fatal error
	RunStateFailed RunState = "failed"
)

// validRunTransitions defines the orchestration pipeline. The
// RepairingDeps -> Launching -> Probing cycle repeats once per service;
// no state is re-entrant across runs.
var validRunTransitions = map[RunState][]RunState{
	RunStateIdle:            {RunStateReaping, RunStateFailed},
	RunStateReaping:         {RunStateVerifyingEnv, RunStateFailed},
	RunStateVerifyingEnv:    {RunStateRepairingDeps, RunStateFailed},
	RunStateRepairingDeps:   {RunStateLaunching, RunStateFailed},
	RunStateLaunching:       {RunStateProbing, RunStateFailed},
	RunStateProbing:         {RunStateRepairingDeps, RunStateReportingStatus, RunStateFailed},
	RunStateReportingStatus: {RunStateOpeningBrowser, RunStateDone, RunStateFailed},
	RunStateOpeningBrowser:  {RunStateDone, RunStateFailed},
	RunStateDone:            {},
	RunStateFailed:          {},
}

// RunTransition records one state change for diagnostics
type RunTransition struct {
	From      RunState
	To        RunState
	Reason    string
	Timestamp time.Time
}

// RunStateMachine tracks the single-pass orchestration pipeline
type RunStateMachine struct {
	current RunState
	history []RunTransition
	logger  logging.Logger
}

func NewRunStateMachine(logger logging.Logger) *RunStateMachine {
	return &RunStateMachine{
		current: RunStateIdle,
		logger:  logger,
	}
}

// Current returns the current run state
func (sm *RunStateMachine) Current() RunState {
	return sm.current
}

// History returns all recorded transitions in order
func (sm *RunStateMachine) History() []RunTransition {
	historyCopy := make([]RunTransition, len(sm.history))
	copy(historyCopy, sm.history)
	return historyCopy
}

// Transition moves the pipeline to the target state if the transition is
// allowed from the current state
func (sm *RunStateMachine) Transition(to RunState, reason string) error {
	allowed := false
	for _, candidate := range validRunTransitions[sm.current] {
		if candidate == to {
			allowed = true
			break
		}
	}

	if !allowed {
		return errors.NewInternalError(
			"invalid run state transition",
			nil,
		).WithContext("from", string(sm.current)).WithContext("to", string(to)).WithContext("reason", reason)
	}

	sm.logger.Debugf("Run state transition: %s -> %s, reason: %s", sm.current, to, reason)

	sm.history = append(sm.history, RunTransition{
		From:      sm.current,
		To:        to,
		Reason:    reason,
		Timestamp: time.Now(),
	})
	sm.current = to
	return nil
}
