// Package paludis queries the Paludis package manager through its cave client.
package paludis

import (
	"context"
	"fmt"
	"strings"

	"github.com/z0mbix/pmbridge/internal/command"
)

// DefaultCommand is the cave executable looked up on PATH
const DefaultCommand = "cave"

// InstalledRepository restricts an atom to installed package IDs
const InstalledRepository = "installed"

// Cave runs cave subcommands
type Cave struct {
	Command string
	Runner  command.Runner
}

// New creates a Cave client using runner
func New(runner command.Runner) *Cave {
	return &Cave{Command: DefaultCommand, Runner: runner}
}

func (c *Cave) command() string {
	if c.Command == "" {
		return DefaultCommand
	}
	return c.Command
}

// EnvironmentVariable prints a single environment variable of the best
// package ID matching atom. The result is trimmed.
func (c *Cave) EnvironmentVariable(ctx context.Context, atom, variable string) (string, error) {
	result, err := c.Runner.Run(ctx, c.command(),
		"print-id-environment-variable",
		"-b",
		"--format", "%v",
		"--variable-name", variable,
		atom,
	)
	if err != nil {
		if command.IsExitError(err) {
			return "", fmt.Errorf("cave print-id-environment-variable %s for %s failed (exit %d): %s",
				variable, atom, result.ExitCode, strings.TrimSpace(result.Stderr))
		}
		return "", fmt.Errorf("failed to run %s: %w", c.command(), err)
	}
	return strings.TrimSpace(result.Stdout), nil
}

// BestVersion prints the best installed version matching spec. An empty
// version means nothing matched. Lines cave writes to stderr are returned
// as warnings. A non-zero exit status is how cave reports no match and is
// not an error.
func (c *Cave) BestVersion(ctx context.Context, spec string) (string, []string, error) {
	result, err := c.Runner.Run(ctx, c.command(), "print-best-version", spec)
	if err != nil && !command.IsExitError(err) {
		return "", nil, fmt.Errorf("failed to run %s: %w", c.command(), err)
	}

	var warnings []string
	for _, line := range strings.Split(result.Stderr, "\n") {
		if line = strings.TrimRight(line, "\r"); strings.TrimSpace(line) != "" {
			warnings = append(warnings, line)
		}
	}
	return strings.TrimSpace(result.Stdout), warnings, nil
}
