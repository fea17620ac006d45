package updater

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/logger"
)

const (
	// browserUserAgent is sent on every remote request; the download servers
	// reject default Go agents.
	browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"

	// artifactNameTemplate produces the installer filename for a version.
	artifactNameTemplate = "NVIDIA-Linux-x86_64-%s.run"

	// downloadChunkSize is the fixed read size for artifact transfers.
	downloadChunkSize = 8 * 1024

	// markerFilename marks that an install is running right now to avoid
	// two privileged installs racing each other.
	markerFilename = "nvidia-driver-check-install-marker.bin"

	// markerLifetime is the period after which a marker alone is not trusted
	// and the process list decides whether another instance is alive.
	markerLifetime = 30 * time.Second

	// toolExecutableName is this binary's name as seen in the process list.
	toolExecutableName = "nvidia-driver-check"

	// executableBits are OR-ed into the artifact's mode after download.
	executableBits os.FileMode = 0o111
)

var (
	errBadHTTPStatus     = errors.New("unexpected http status")
	errEmptyVersionBody  = errors.New("empty version index body")
	errInstallRunning    = errors.New("another install is already running")
	errInstallDeclined   = errors.New("installation declined")
	errInstallFailed     = errors.New("installation failed")
	errInstallTimedOut   = errors.New("installation timed out")
	errInstallStartError = errors.New("installer could not be started")
)

// ArtifactName returns the installer filename for a driver version.
func ArtifactName(version string) string {
	return fmt.Sprintf(artifactNameTemplate, version)
}

// ArtifactURL composes the download URL for a driver version under base.
func ArtifactURL(base, version string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse download base: %w", err)
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	u.Path = path.Join(u.Path, version, ArtifactName(version))

	return u.String(), nil
}

// markerPath returns the absolute location of the install marker.
func markerPath() string {
	return filepath.Join(os.TempDir(), markerFilename)
}

// isInstallRunningNow checks presence of the marker file and consults the
// process list when the marker looks stale.
func isInstallRunningNow(ctx context.Context) bool {
	fileInfo, err := os.Stat(markerPath())
	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	if err != nil {
		logger.Infof(ctx, "Unable to read install marker: %v", err)
		return false
	}

	if time.Since(fileInfo.ModTime()) <= markerLifetime {
		return true
	}

	logger.Info(ctx, "The install marker is stale, checking for a live instance")

	if otherInstanceAlive() {
		return true
	}

	if err = os.Remove(markerPath()); err != nil {
		return true
	}

	return false
}

// otherInstanceAlive reports whether another process with this tool's
// executable name exists. Errors listing processes err on the safe side.
func otherInstanceAlive() bool {
	processList, err := ps.Processes()
	if err != nil {
		return true
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == toolExecutableName {
			return true
		}
	}

	return false
}

// acquireInstallMarker creates the marker file; callers must release it with
// releaseInstallMarker on every exit path.
func acquireInstallMarker() error {
	marker, err := os.Create(markerPath())
	if err != nil {
		return fmt.Errorf("create install marker: %w", err)
	}

	return marker.Close()
}

// releaseInstallMarker removes the marker file if present.
func releaseInstallMarker() {
	if _, err := os.Stat(markerPath()); err == nil {
		_ = os.Remove(markerPath())
	}
}
