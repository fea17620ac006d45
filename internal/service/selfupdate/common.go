package selfupdate

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/logger"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

var errHashUnavailable = errors.New("hash function unavailable")

const (
	// ManifestFilename stores the release description published next to the binaries.
	ManifestFilename = "nvidia-driver-check-version.yaml"

	// markerFilename marks that a self-update is running right now to avoid
	// parallel execution.
	markerFilename = "nvidia-driver-check-update-marker.bin"

	// markerLifetime is the period after which a stale update marker is ignored.
	markerLifetime = 30 * time.Second

	// toolExecutableName is this binary's name as seen in the process list.
	toolExecutableName = "nvidia-driver-check"

	// DefaultFileMode is used when applying the replacement binary.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to verify downloaded release files.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512
)

// Description contains metadata about a published release of this tool.
type Description struct {
	// VersionNumber is the semantic version of the release.
	VersionNumber string `yaml:"version"`
	// Executable is the release binary filename inside the update folder.
	Executable string `yaml:"executable"`
	// Files maps filenames to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// markerPath returns the absolute location of the update marker.
func markerPath() string {
	return filepath.Join(os.TempDir(), markerFilename)
}

// IsUpdaterRunningNow checks presence of the marker file and attempts
// recovery when it looks stale.
func IsUpdaterRunningNow(ctx context.Context) bool {
	logger.Info(ctx, "Checking for the presence of an update marker")

	fileInfo, err := os.Stat(markerPath())
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The update marker is too old, attempting cleanup")

		if otherInstanceAlive() {
			return true
		}

		if err = os.Remove(markerPath()); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Update marker not found, continuing")
		return false
	}

	logger.Infof(ctx, "Unable to read update marker: %v", err)

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
