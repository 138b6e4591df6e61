package process

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/core-tools/hsu-stackup/pkg/errors"
	"github.com/core-tools/hsu-stackup/pkg/logging"
)

type ExecutionConfig struct {
	ExecutablePath   string   `yaml:"executable_path"`
	Args             []string `yaml:"args,omitempty"`
	Environment      []string `yaml:"environment,omitempty"`
	WorkingDirectory string   `yaml:"working_directory,omitempty"`
	LogFile          string   `yaml:"log_file,omitempty"`
}

// ExitStatus is delivered on the handle's done channel when a launched
// process terminates while the orchestrator is still alive.
type ExitStatus struct {
	Code int
	Err  error
}

// Handle supervises a launched service process. The process is started in
// its own process group and is not tied to the orchestrator's lifetime: it
// keeps running after the orchestrator exits. Output goes to the configured
// log file, not to a pipe, so the child never blocks on an absent reader.
type Handle struct {
	id      string
	process *os.Process
	logPath string
	done    chan ExitStatus
}

// PID returns the process identifier of the launched process.
func (h *Handle) PID() int {
	return h.process.Pid
}

// LogPath returns the file receiving the process's combined output.
func (h *Handle) LogPath() string {
	return h.logPath
}

// Done delivers the exit status if the process terminates during the
// orchestration run. A still-initializing healthy service never fires it.
func (h *Handle) Done() <-chan ExitStatus {
	return h.done
}

// Exited reports, without blocking, whether the process already terminated.
func (h *Handle) Exited() (ExitStatus, bool) {
	select {
	case status, ok := <-h.done:
		if !ok {
			return ExitStatus{}, true
		}
		return status, true
	default:
		return ExitStatus{}, false
	}
}

// Release hands ownership of the process lifecycle over to the operator.
func (h *Handle) Release() error {
	return h.process.Release()
}

// Terminate requests termination of the process group.
func (h *Handle) Terminate() error {
	return SendTerminationSignal(h.process.Pid)
}

// Launch starts a service process detached from the orchestrator's process
// group, with combined stdout/stderr redirected to the execution log file.
func Launch(ctx context.Context, execution ExecutionConfig, id string, logger logging.Logger) (*Handle, error) {
	if ctx == nil {
		logger.Errorf("Context cannot be nil, id: %s", id)
		return nil, errors.NewValidationError("context cannot be nil", nil).WithContext("id", id)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelledError("launch cancelled", err).WithContext("id", id)
	}

	if err := ValidateExecutionConfig(execution); err != nil {
		logger.Errorf("Execution configuration validation failed, id: %s, error: %v", id, err)
		return nil, errors.NewValidationError("invalid execution configuration", err).WithContext("id", id)
	}

	if err := ensureExecutable(execution.ExecutablePath); err != nil {
		return nil, errors.NewPermissionError("failed to ensure process is executable", err).WithContext("id", id).WithContext("executable_path", execution.ExecutablePath)
	}

	workDir := execution.WorkingDirectory
	if workDir == "" {
		absPath, err := filepath.Abs(execution.ExecutablePath)
		if err != nil {
			return nil, errors.NewIOError("failed to get absolute path", err).WithContext("id", id).WithContext("executable_path", execution.ExecutablePath)
		}
		workDir = filepath.Dir(absPath)
	}

	logPath := execution.LogFile
	if logPath == "" {
		logPath = filepath.Join(workDir, id+".log")
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.NewIOError("failed to open service log file", err).WithContext("id", id).WithContext("log_file", logPath)
	}

	env := os.Environ()
	env = append(env, execution.Environment...)

	logger.Debugf("Launching process, id: %s, executable path: '%s', args: %v, working directory: '%s', log file: '%s'",
		id, execution.ExecutablePath, execution.Args, workDir, logPath)

	// Deliberately not CommandContext: the service must outlive the
	// orchestrator, so context cancellation never kills it.
	cmd := exec.Command(execution.ExecutablePath, execution.Args...)
	cmd.Dir = workDir
	cmd.Env = env
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	// Platform-specific setup is handled in execute_unix.go or execute_windows.go
	setupProcessAttributes(cmd)

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, errors.NewProcessError("failed to start the process", err).WithContext("id", id).WithContext("executable_path", execution.ExecutablePath)
	}

	logger.Infof("Launched process, id: %s, PID: %d", id, cmd.Process.Pid)

	handle := &Handle{
		id:      id,
		process: cmd.Process,
		logPath: logPath,
		done:    make(chan ExitStatus, 1),
	}

	go func() {
		defer logFile.Close()
		waitErr := cmd.Wait()
		code := -1
		if cmd.ProcessState != nil {
			code = cmd.ProcessState.ExitCode()
		}
		handle.done <- ExitStatus{Code: code, Err: waitErr}
		close(handle.done)
	}()

	return handle, nil
}

// ensureExecutable checks if a file is executable and makes it executable if it's not
func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.NewIOError("file does not exist", err).WithContext("path", path)
	}

	// On Windows, files with .exe, .bat, .cmd extensions are inherently executable
	if runtime.GOOS == "windows" {
		ext := filepath.Ext(path)
		if ext == ".exe" || ext == ".bat" || ext == ".cmd" {
			return nil
		}
		return nil
	}

	mode := info.Mode()
	if mode&0111 != 0 {
		return nil // Already executable
	}

	if err := os.Chmod(path, mode|0111); err != nil {
		return errors.NewPermissionError("failed to make file executable", err).WithContext("path", path)
	}

	return nil
}
