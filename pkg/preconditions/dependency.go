package preconditions

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/core-tools/hsu-stackup/pkg/errors"
	"github.com/core-tools/hsu-stackup/pkg/logging"
)

const defaultCommandTimeout = 120 * time.Second

// DependencyConfig describes a library that must be importable inside the
// isolated environment before the service using it is launched.
type DependencyConfig struct {
	Module        string        `yaml:"module"`                   // import name
	Package       string        `yaml:"package,omitempty"`        // install name; defaults to Module
	PinnedVersion string        `yaml:"pinned_version"`           // version reinstalled on repair
	Timeout       time.Duration `yaml:"command_timeout,omitempty"`
}

// ImportableDependency verifies that a module imports cleanly under the
// environment interpreter. Repair performs exactly one uninstall followed by
// one pinned, cache-bypassing reinstall.
type ImportableDependency struct {
	Interpreter string
	Config      DependencyConfig
	Logger      logging.Logger
}

func (d *ImportableDependency) Name() string {
	return "importable-dependency:" + d.Config.Module
}

func (d *ImportableDependency) packageName() string {
	if d.Config.Package != "" {
		return d.Config.Package
	}
	return d.Config.Module
}

func (d *ImportableDependency) commandTimeout() time.Duration {
	if d.Config.Timeout > 0 {
		return d.Config.Timeout
	}
	return defaultCommandTimeout
}

func (d *ImportableDependency) Verify(ctx context.Context) error {
	if d.Config.Module == "" {
		return errors.NewValidationError("dependency module name cannot be empty", nil)
	}

	output, err := d.run(ctx, "-c", fmt.Sprintf("import %s", d.Config.Module))
	if err != nil {
		return errors.NewPreconditionError("dependency import failed", err).
			WithContext("module", d.Config.Module).
			WithContext("output", output)
	}
	return nil
}

func (d *ImportableDependency) Repair(ctx context.Context) error {
	pkg := d.packageName()
	pinned := fmt.Sprintf("%s==%s", pkg, d.Config.PinnedVersion)

	d.Logger.Infof("Repairing dependency, package: %s, pinned: %s", pkg, pinned)

	// Uninstall first so a corrupted installation does not survive the
	// reinstall. An uninstall failure (e.g. nothing installed) is not fatal.
	if output, err := d.run(ctx, "-m", "pip", "uninstall", "-y", pkg); err != nil {
		d.Logger.Warnf("Dependency uninstall failed, package: %s, error: %v, output: %s", pkg, err, output)
	}

	output, err := d.run(ctx, "-m", "pip", "install", pinned, "--no-cache-dir", "--force-reinstall")
	if err != nil {
		return errors.NewPreconditionError("dependency reinstall failed", err).
			WithContext("package", pinned).
			WithContext("output", output)
	}

	d.Logger.Infof("Dependency reinstalled, package: %s", pinned)
	return nil
}

func (d *ImportableDependency) run(ctx context.Context, args ...string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, d.commandTimeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, d.Interpreter, args...)
	output, err := cmd.CombinedOutput()

	if runCtx.Err() == context.DeadlineExceeded {
		return string(output), errors.NewTimeoutError(
			fmt.Sprintf("interpreter command timed out after %v", d.commandTimeout()), nil,
		).WithContext("args", args)
	}
	return string(output), err
}
