package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/config"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/logger"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/service/checker"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/service/selfupdate"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// logLevel controls the logging verbosity for this run.
	logLevel string
	// skipUpdateCheck disables the driver update check after the report.
	skipUpdateCheck bool

	// rootCmd represents the base command that checks the NVIDIA driver.
	rootCmd = &cobra.Command{
		Use:   "nvidia-driver-check",
		Short: "Check the NVIDIA driver and install updates.",
		Long: `Check whether an NVIDIA driver is installed and offer to install or update it.

Queries the local driver through nvidia-smi and prints a GPU report.
When no driver is found, offers to download and install the latest release.
When a driver is present, compares its version against the latest published
release and offers an upgrade if one is available.
Driver installation runs the official .run installer under sudo.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			applyLogLevel()

			checkerOptions := &checker.Options{
				ConfigPath:      configPath,
				SkipUpdateCheck: skipUpdateCheck,
			}

			return checker.Run(ctx, checkerOptions)
		},
	}

	// selfUpdateCmd downloads and applies a new release of this tool.
	selfUpdateCmd = &cobra.Command{
		Use:   "self-update",
		Short: "Update this tool to the latest published release",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			applyLogLevel()

			return selfupdate.Run(ctx, &selfupdate.Options{ConfigPath: configPath})
		},
	}
)

// Execute runs the nvidia-driver-check CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(selfUpdateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyLogLevel parses the --log-level flag and configures the logger.
// Unknown values fall back to the logger default.
func applyLogLevel() {
	if level, ok := logger.ParseLogLevel(logLevel); ok {
		logger.SetLevel(level)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename,
		"path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"logging level (debug, info, warn, error, fatal)")

	rootCmd.Flags().BoolVar(&skipUpdateCheck, "skip-update-check", false,
		"print the GPU report without checking for driver updates")
}
