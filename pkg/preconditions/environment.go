package preconditions

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/core-tools/hsu-stackup/pkg/errors"
)

// RuntimeEnvironment checks that the isolated runtime environment exists on
// disk by probing for its interpreter executable. It has no automatic repair:
// a missing environment is a fatal precondition that only the operator can
// resolve.
type RuntimeEnvironment struct {
	Dir             string
	InterpreterPath string // relative to Dir; defaulted per-OS when empty
}

// DefaultInterpreterPath returns the conventional interpreter location inside
// an isolated environment for the current OS.
func DefaultInterpreterPath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join("Scripts", "python.exe")
	}
	return filepath.Join("bin", "python")
}

func (e *RuntimeEnvironment) Name() string {
	return "runtime-environment"
}

// Interpreter returns the absolute path of the environment's interpreter.
func (e *RuntimeEnvironment) Interpreter() string {
	rel := e.InterpreterPath
	if rel == "" {
		rel = DefaultInterpreterPath()
	}
	return filepath.Join(e.Dir, rel)
}

func (e *RuntimeEnvironment) Verify(ctx context.Context) error {
	interpreter := e.Interpreter()

	info, err := os.Stat(interpreter)
	if err != nil {
		return errors.NewNotFoundError("environment interpreter not found", err).
			WithContext("interpreter", interpreter)
	}
	if info.IsDir() {
		return errors.NewValidationError("environment interpreter path is a directory", nil).
			WithContext("interpreter", interpreter)
	}
	return nil
}

func (e *RuntimeEnvironment) Repair(ctx context.Context) error {
	return errors.NewPreconditionError(
		"runtime environment cannot be created automatically; create it first, e.g.: python -m venv "+e.Dir,
		nil,
	).WithContext("environment_dir", e.Dir)
}
