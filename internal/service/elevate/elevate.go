package elevate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// escalationCommand is the privilege escalation mechanism used on Linux.
const escalationCommand = "sudo"

// Outcome describes how a privileged command finished.
type Outcome struct {
	// ExitCode is the process exit code; zero means success.
	ExitCode int
	// TimedOut is set when the command exceeded the allowed duration.
	TimedOut bool
}

// Succeeded reports whether the command completed with exit code zero.
func (o Outcome) Succeeded() bool {
	return !o.TimedOut && o.ExitCode == 0
}

// Runner executes a command with elevated operating-system rights.
// Implementations must bound execution by the provided timeout and map a
// nonzero exit or a deadline into the Outcome instead of an error; the error
// return is reserved for failures to start the command at all.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, path string) (Outcome, error)
}

// SudoRunner invokes the target through sudo with the caller's terminal
// attached, so installers can interact with the operator (sudo password,
// installer prompts).
type SudoRunner struct{}

// Run implements Runner.
func (SudoRunner) Run(ctx context.Context, timeout time.Duration, path string) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, escalationCommand, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return Outcome{}, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Outcome{TimedOut: true}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Outcome{ExitCode: exitErr.ExitCode()}, nil
	}

	return Outcome{}, fmt.Errorf("run privileged command: %w", err)
}
