package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/config"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/domain/driver"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/logger"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/service/common"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/service/elevate"
)

// versionResolver fetches the latest published version identifier.
type versionResolver interface {
	FetchLatestVersion(ctx context.Context) (string, error)
}

// artifactDownloader streams a remote artifact to local storage.
type artifactDownloader interface {
	Download(ctx context.Context, url, destinationPath string) error
}

// driverInstaller runs the downloaded artifact with elevated rights.
type driverInstaller interface {
	Install(ctx context.Context, artifactPath string) InstallResult
}

// Service composes version resolution, artifact download and privileged
// installation into the two user-facing flows: fresh install (no driver
// present) and check-and-upgrade (driver present).
type Service struct {
	cfg        *config.Config
	console    common.Console
	confirmer  common.Confirmer
	resolver   versionResolver
	downloader artifactDownloader
	installer  driverInstaller
}

// NewService wires the production collaborators: the HTTP resolver and
// downloader plus a sudo-backed installer. Progress output renders to the
// provided writer.
func NewService(
	cfg *config.Config,
	console common.Console,
	confirmer common.Confirmer,
	runner elevate.Runner,
	progress io.Writer,
) *Service {
	return &Service{
		cfg:        cfg,
		console:    console,
		confirmer:  confirmer,
		resolver:   NewResolver(cfg),
		downloader: NewDownloader(cfg, progress),
		installer:  NewInstaller(console, confirmer, runner, cfg.InstallTimeout),
	}
}

// InstallFresh installs the latest driver on a machine with no driver
// detected. A nil return means the driver was installed; any other outcome
// (resolution failure, decline, download or install failure) is reported to
// the user and returned as an error so the caller can set the exit code.
func (s *Service) InstallFresh(ctx context.Context) error {
	s.console.Println()
	s.console.Println("Fetching latest NVIDIA driver version...")

	latest, err := s.resolver.FetchLatestVersion(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Latest version resolution failed", "error", err)
		s.reportResolveFailure()

		return fmt.Errorf("resolve latest version: %w", err)
	}

	s.console.Printf("Latest available version: %s\n", latest)
	s.console.Println()

	if !s.confirmer.Confirm("Would you like to download and install it?") {
		s.console.Println("Installation cancelled. To install manually, visit:")
		s.console.Println(s.cfg.ManualDownloadURL)

		return errInstallDeclined
	}

	return s.downloadAndInstall(ctx, latest)
}

// CheckForUpdates compares the installed driver version against the latest
// release and offers an upgrade when one exists. Every failure is converted
// into user guidance here; nothing propagates to the process boundary.
func (s *Service) CheckForUpdates(ctx context.Context, currentVersion string) {
	s.console.Println()
	s.console.Println("Checking for driver updates...")

	latest, err := s.resolver.FetchLatestVersion(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Latest version resolution failed", "error", err)
		s.reportResolveFailure()

		return
	}

	s.console.Printf("Current version: %s\n", currentVersion)
	s.console.Printf("Latest version:  %s\n", latest)
	s.console.Println()

	comparison := driver.Compare(currentVersion, latest)
	logger.InfoKV(ctx, "Compared driver versions",
		"current", currentVersion, "latest", latest, "result", comparison.String())

	switch comparison {
	case driver.Older:
		s.console.Println("Your driver is up to date (or newer than the latest release).")
	case driver.Equal:
		s.console.Println("Your driver is up to date.")
	case driver.Newer:
		s.offerUpgrade(ctx, latest)
	}
}

// offerUpgrade prompts for confirmation and runs the shared sequence.
func (s *Service) offerUpgrade(ctx context.Context, latest string) {
	s.console.Println("A newer driver version is available!")
	s.console.Println()

	if !s.confirmer.Confirm("Would you like to download and install it?") {
		s.console.Println("Update cancelled. To update manually, visit:")
		s.console.Println(s.cfg.ManualDownloadURL)

		return
	}

	if err := s.downloadAndInstall(ctx, latest); err != nil {
		logger.ErrorKV(ctx, "Driver update failed", "error", err)
	}
}

// downloadAndInstall is the shared download-then-install sequence. The
// temporary directory holding the artifact is removed on every exit path,
// so a failed transfer never leaks partial files. The install marker keeps
// two runs from racing a privileged install.
func (s *Service) downloadAndInstall(ctx context.Context, version string) error {
	if isInstallRunningNow(ctx) {
		s.console.Println("Another installation is already running.")
		return errInstallRunning
	}

	if err := acquireInstallMarker(); err != nil {
		return err
	}

	defer releaseInstallMarker()

	temporaryDirectory, err := os.MkdirTemp("", "nvidia-driver-check-")
	if err != nil {
		return fmt.Errorf("create temporary directory: %w", err)
	}

	defer func() {
		_ = os.RemoveAll(temporaryDirectory)
	}()

	downloadURL, err := ArtifactURL(s.cfg.DownloadBaseURL, version)
	if err != nil {
		return err
	}

	destinationPath := filepath.Join(temporaryDirectory, ArtifactName(version))

	s.console.Println()
	s.console.Println("Downloading driver...")
	s.console.Printf("URL: %s\n", downloadURL)
	s.console.Println("This may take several minutes...")

	// The artifact is executed as downloaded: the index publishes no
	// checksum or signature to verify it against.
	logger.Warn(ctx, "Artifact integrity is not verified before installation")

	if err = s.downloader.Download(ctx, downloadURL, destinationPath); err != nil {
		logger.ErrorKV(ctx, "Download failed", "error", err)
		s.console.Println("Download failed. Please try manually:")
		s.console.Printf("Visit: %s\n", s.cfg.ManualDownloadURL)

		return fmt.Errorf("download driver: %w", err)
	}

	s.console.Printf("Downloaded to: %s\n", destinationPath)

	result := s.installer.Install(ctx, destinationPath)
	logger.InfoKV(ctx, "Install attempt finished", "state", result.State.String())

	switch result.State {
	case InstallSucceeded:
		return nil
	case InstallCancelled:
		return errInstallDeclined
	case InstallTimedOut:
		return errInstallTimedOut
	default:
		if result.Err != nil {
			return fmt.Errorf("%w: %w", errInstallStartError, result.Err)
		}

		return fmt.Errorf("%w: exit code %d", errInstallFailed, result.ExitCode)
	}
}

// reportResolveFailure prints the manual-download fallback guidance.
func (s *Service) reportResolveFailure() {
	s.console.Println("Could not determine the latest driver version.")
	s.console.Printf("Please check manually at: %s\n", s.cfg.ManualDownloadURL)
}

// Declined reports whether the error represents a user decline rather than
// a real failure, so callers can log it as a cancellation.
func Declined(err error) bool {
	return errors.Is(err, errInstallDeclined)
}
