package checker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/config"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/domain/driver"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/logger"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/service/common"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/service/elevate"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/service/updater"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/smi"
)

// bannerWidth is the width of the report frame lines.
const bannerWidth = 60

// ErrNoDriverInstalled is returned when no driver was detected and the fresh
// install flow did not end with an installed driver. It is the only condition
// that sets a nonzero process exit code.
var ErrNoDriverInstalled = errors.New("no driver installed")

// Options are inputs accepted by the checker entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// SkipUpdateCheck only shows current driver info without contacting
	// the remote index.
	SkipUpdateCheck bool
}

// updateFlows is the subset of the updater the checker drives.
type updateFlows interface {
	InstallFresh(ctx context.Context) error
	CheckForUpdates(ctx context.Context, currentVersion string)
}

// service holds the collaborators for a single check run.
// It is intentionally unexported; call Run(ctx, Options) from callers.
type service struct {
	console         common.Console
	querier         smi.Querier
	updates         updateFlows
	skipUpdateCheck bool
}

// Run executes the complete driver check and is the public entry point for
// the CLI: report driver presence, version and GPU properties, then check
// for updates unless skipped.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "nvidia-driver-check")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	console := common.NewConsole(os.Stdout)

	s := &service{
		console:         console,
		querier:         smi.NewCommand(cfg.QueryTimeout),
		updates:         updater.NewService(cfg, console, common.NewLineConfirmer(os.Stdin, console), elevate.SudoRunner{}, console.Writer()),
		skipUpdateCheck: opts.SkipUpdateCheck,
	}

	return s.run(ctx)
}

// run performs the check against the wired collaborators.
func (s *service) run(ctx context.Context) error {
	s.printRule()
	s.console.Println("NVIDIA Driver Check")
	s.printRule()
	s.console.Println()

	if !s.querier.Available(ctx) {
		return s.handleMissingDriver(ctx)
	}

	s.console.Println("NVIDIA driver is installed")
	s.console.Println()

	state := s.querier.Collect(ctx)
	s.printState(state)

	if !s.skipUpdateCheck {
		s.checkForUpdates(ctx, state)
	}

	s.console.Println()
	s.printRule()

	return nil
}

// handleMissingDriver offers a fresh install when no driver was detected.
func (s *service) handleMissingDriver(ctx context.Context) error {
	logger.Info(ctx, "Diagnostic command unavailable, no driver detected")

	s.console.Println("NVIDIA driver not found or nvidia-smi not available")
	s.console.Println()
	s.console.Println("Would you like to install the latest NVIDIA driver?")

	if err := s.updates.InstallFresh(ctx); err != nil {
		if updater.Declined(err) {
			logger.Info(ctx, "Fresh install declined by the user")
		}

		s.console.Println()
		s.console.Println("For manual installation, visit:")
		s.console.Println(config.DefaultManualDownloadURL)

		return fmt.Errorf("%w: %w", ErrNoDriverInstalled, err)
	}

	s.console.Println()
	s.console.Println("Installation process completed!")
	s.console.Println("Please reboot your system and run this tool again to verify.")
	s.console.Println()
	s.printRule()

	return nil
}

// printState renders the driver version and the GPU info block.
func (s *service) printState(state *driver.State) {
	if state.Version != "" {
		s.console.Printf("Driver Version: %s\n", state.Version)
	}

	if !state.HasGPUInfo() {
		return
	}

	s.console.Println()
	s.console.Println("GPU Information:")
	s.console.Println(strings.Repeat("-", bannerWidth))

	if state.GPUName != "" {
		s.console.Printf("  GPU Name:       %s\n", state.GPUName)
	}

	if state.CUDAVersion != "" {
		s.console.Printf("  CUDA Version:   %s\n", state.CUDAVersion)
	}

	if state.MemoryTotal != "" {
		s.console.Printf("  Memory Total:   %s\n", state.MemoryTotal)
		s.console.Printf("  Memory Used:    %s\n", state.MemoryUsed)
		s.console.Printf("  Memory Free:    %s\n", state.MemoryFree)
	}
}

// checkForUpdates delegates to the updater when the current version is known.
func (s *service) checkForUpdates(ctx context.Context, state *driver.State) {
	if state.Version == "" {
		s.console.Println()
		s.console.Println("Cannot check for updates - current driver version unknown")

		return
	}

	s.updates.CheckForUpdates(ctx, state.Version)
}

// printRule draws a horizontal frame line.
func (s *service) printRule() {
	s.console.Println(strings.Repeat("=", bannerWidth))
}
