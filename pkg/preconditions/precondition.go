package preconditions

import (
	"context"

	"github.com/core-tools/hsu-stackup/pkg/errors"
	"github.com/core-tools/hsu-stackup/pkg/logging"
)

// Precondition is a startup requirement that can be verified and, for some
// implementations, repaired in place.
type Precondition interface {
	Name() string
	Verify(ctx context.Context) error
	Repair(ctx context.Context) error
}

// Ensure verifies the precondition. On verification failure it performs
// exactly one repair pass followed by one re-verification; repair itself is
// never retried. The final error, if any, is surfaced to the caller, which
// decides whether it is fatal or advisory.
func Ensure(ctx context.Context, p Precondition, logger logging.Logger) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}

	err := p.Verify(ctx)
	if err == nil {
		logger.Debugf("Precondition satisfied, name: %s", p.Name())
		return nil
	}

	logger.Warnf("Precondition failed, name: %s, error: %v", p.Name(), err)

	if repairErr := p.Repair(ctx); repairErr != nil {
		return errors.NewPreconditionError("precondition repair failed", repairErr).
			WithContext("precondition", p.Name()).
			WithContext("verify_error", err.Error())
	}

	if err := p.Verify(ctx); err != nil {
		return errors.NewPreconditionError("precondition still failing after repair", err).
			WithContext("precondition", p.Name())
	}

	logger.Infof("Precondition repaired, name: %s", p.Name())
	return nil
}
