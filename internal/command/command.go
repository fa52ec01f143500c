// Package command runs external programs and captures their output.
package command

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// Result holds the outcome of a finished command
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// ExitError is returned when a command ran and exited non-zero
type ExitError struct {
	Command string
	Code    int
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Runner executes a command and waits for it to finish
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner runs commands on the local host. A command that starts but
// exits non-zero returns its Result together with an *ExitError.
type ExecRunner struct {
	Logger zerolog.Logger
	Env    []string
}

// NewExecRunner creates a runner that logs through logger
func NewExecRunner(logger zerolog.Logger) *ExecRunner {
	return &ExecRunner{Logger: logger}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	if r.Env != nil {
		cmd.Env = r.Env
	}
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.Debug().Str("command", name).Strs("args", args).Msg("running command")
	err := cmd.Run()

	result := Result{
		Command:  strings.Join(append([]string{name}, args...), " "),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: ExitCode(err),
		Duration: time.Since(start),
	}
	r.Logger.Debug().
		Str("command", name).
		Int("exit_code", result.ExitCode).
		Dur("duration", result.Duration).
		Msg("command finished")

	if IsExitError(err) {
		return result, &ExitError{Command: result.Command, Code: result.ExitCode, Err: err}
	}
	return result, err
}

// ExitCode extracts the exit status from an error returned by Run. It is 0
// for a nil error and -1 when the process never ran.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ours *ExitError
	if errors.As(err, &ours) {
		return ours.Code
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	return -1
}

// IsExitError reports whether err means the process ran and exited non-zero
func IsExitError(err error) bool {
	var ours *ExitError
	if errors.As(err, &ours) {
		return true
	}
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
