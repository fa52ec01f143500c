// Package commandtest provides a scripted command.Runner for tests.
package commandtest

import (
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/z0mbix/pmbridge/internal/command"
)

// Response is what FakeRunner returns for one command line
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is returned as is when set
	Err error
}

// FakeRunner answers commands from a table keyed by the full command line.
// Unscripted commands fail as if the executable was not found.
type FakeRunner struct {
	mu        sync.Mutex
	Responses map[string]Response
	Calls     []string
}

// NewFakeRunner creates a FakeRunner with no scripted responses
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Responses: make(map[string]Response)}
}

// On scripts the response for a command line
func (f *FakeRunner) On(line string, resp Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[line] = resp
	return f
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	line := strings.Join(append([]string{name}, args...), " ")

	f.mu.Lock()
	f.Calls = append(f.Calls, line)
	resp, ok := f.Responses[line]
	f.mu.Unlock()

	if !ok {
		return command.Result{Command: line, ExitCode: -1}, &exec.Error{Name: name, Err: exec.ErrNotFound}
	}

	result := command.Result{
		Command:  line,
		Stdout:   resp.Stdout,
		Stderr:   resp.Stderr,
		ExitCode: resp.ExitCode,
	}
	if resp.Err != nil {
		return result, resp.Err
	}
	if resp.ExitCode != 0 {
		return result, &command.ExitError{Command: line, Code: resp.ExitCode}
	}
	return result, nil
}
