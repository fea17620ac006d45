package updater

import (
	"context"
	"time"

	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/logger"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/service/common"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/service/elevate"
)

// InstallState is a terminal state of a single install attempt.
type InstallState int

const (
	// InstallCancelled means the user declined the confirmation prompt.
	// It is a decline signal, not an error.
	InstallCancelled InstallState = iota
	// InstallSucceeded means the installer exited with code zero.
	InstallSucceeded
	// InstallFailed means the installer exited nonzero or could not start.
	InstallFailed
	// InstallTimedOut means the installer exceeded the allowed duration.
	InstallTimedOut
)

// String returns a human-readable name for logging.
func (s InstallState) String() string {
	switch s {
	case InstallCancelled:
		return "cancelled"
	case InstallSucceeded:
		return "succeeded"
	case InstallFailed:
		return "failed"
	case InstallTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// InstallResult reports how an install attempt finished. Err carries the
// underlying cause when the installer could not be started at all.
type InstallResult struct {
	State    InstallState
	ExitCode int
	Err      error
}

// Installer executes the downloaded driver artifact through the privilege
// escalation mechanism, after an explicit interactive confirmation.
type Installer struct {
	console   common.Console
	confirmer common.Confirmer
	runner    elevate.Runner
	timeout   time.Duration
}

// NewInstaller wires the installer's capabilities.
func NewInstaller(console common.Console, confirmer common.Confirmer, runner elevate.Runner, timeout time.Duration) *Installer {
	return &Installer{
		console:   console,
		confirmer: confirmer,
		runner:    runner,
		timeout:   timeout,
	}
}

// Install prints the exact privileged command that will run, asks for
// confirmation and executes the artifact with elevated rights. Declining
// never touches the privileged runner. None of the failure outcomes crash
// the process; they are reported and returned for the orchestrator to act on.
func (i *Installer) Install(ctx context.Context, artifactPath string) InstallResult {
	i.console.Println()
	i.console.Println("Driver installation requires root privileges.")
	i.console.Printf("The installer will run: sudo %s\n", artifactPath)
	i.console.Println()

	if !i.confirmer.Confirm("Proceed with installation?") {
		i.console.Println("Installation cancelled.")
		return InstallResult{State: InstallCancelled}
	}

	i.console.Println()
	i.console.Println("Starting driver installation...")
	i.console.Println("Note: this will likely require the X server to be stopped.")
	i.console.Println()

	outcome, err := i.runner.Run(ctx, i.timeout, artifactPath)
	if err != nil {
		logger.ErrorKV(ctx, "Installer could not be started", "error", err)
		i.console.Printf("Installation error: %v\n", err)

		return InstallResult{State: InstallFailed, Err: err}
	}

	switch {
	case outcome.TimedOut:
		i.console.Println("Installation timed out.")
		return InstallResult{State: InstallTimedOut}
	case outcome.ExitCode != 0:
		i.console.Printf("Installation failed with exit code: %d\n", outcome.ExitCode)
		return InstallResult{State: InstallFailed, ExitCode: outcome.ExitCode}
	default:
		i.console.Println()
		i.console.Println("Driver installation completed successfully!")
		i.console.Println("You may need to reboot your system for changes to take effect.")

		return InstallResult{State: InstallSucceeded}
	}
}
