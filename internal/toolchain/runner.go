// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/vkshadergen/vkshadergen/pkg/types"
)

type (
	// Command describes one subprocess invocation.
	Command struct {
		Name string
		Args []string
		// Dir is the working directory; empty means the current one.
		Dir    string
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result is the outcome of a Command. Error is set only when the process
	// could not be started or waited for; a nonzero exit is reported through
	// ExitCode alone.
	Result struct {
		ExitCode types.ExitCode
		Error    error
	}

	// Runner executes commands. ExecRunner is the production implementation;
	// tests substitute a recorder.
	Runner interface {
		Run(ctx context.Context, cmd Command) Result
	}

	// ExecRunner runs commands with os/exec.
	ExecRunner struct{}
)

// Run starts the command and waits for it to exit.
func (ExecRunner) Run(ctx context.Context, c Command) Result {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	return extractExitCode(cmd.Run())
}

// extractExitCode determines the exit code from a command execution error.
func extractExitCode(err error) Result {
	if err == nil {
		return Result{ExitCode: 0}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Command executed but returned non-zero exit code
		code := types.ExitCode(exitErr.ExitCode())
		if validateErr := code.Validate(); validateErr != nil {
			// Killed by a signal; ExitCode() reports -1.
			return Result{ExitCode: 1, Error: fmt.Errorf("%w: %s", validateErr, exitErr)}
		}
		return Result{ExitCode: code}
	}

	// Some other error (e.g., command not found, permission denied)
	return Result{ExitCode: 1, Error: err}
}
