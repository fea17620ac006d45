package selfupdate

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	goupdate "github.com/doitdistributed/go-update"
	"gopkg.in/yaml.v3"

	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/config"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/domain/driver"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/logger"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/version"
)

var (
	errUpdaterAlreadyRunning = errors.New("the self-update is already running")
	errNoUpdateFolder        = errors.New("self-update folder is not configured")
	errEmptyDescription      = errors.New("update description is empty")
	errNoExecutable          = errors.New("release executable is not named in the manifest")
	errNoChecksum            = errors.New("checksum missing for file")
	errBadHTTPStatus         = errors.New("unexpected http status")
)

// Options are inputs accepted by the self-update entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
}

// runner holds the mutable state for a single self-update execution.
// It is intentionally unexported; call Run(ctx, Options) from callers.
type runner struct {
	cfg                *config.Config
	description        *Description
	targetPath         string
	temporaryDirectory string
}

// Run executes the self-update lifecycle and is the public entry point for
// the CLI: fetch the release manifest, compare versions, download the new
// binary and apply it over the running executable with checksum verification.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "self-update")

	r, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer r.cleanup(ctx)

	if err = r.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Self-update failed", "error", err)
		return err
	}

	return nil
}

// newRunner prepares the run and writes a marker to avoid concurrent runs.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	r := new(runner)

	if IsUpdaterRunningNow(ctx) {
		return r, errUpdaterAlreadyRunning
	}

	updateMarker, err := os.Create(markerPath())
	if err != nil {
		return r, err
	}

	if err = updateMarker.Close(); err != nil {
		return r, err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return r, err
	}

	if cfg.SelfUpdateFolder == "" {
		return r, errNoUpdateFolder
	}

	r.cfg = cfg

	r.targetPath, err = os.Executable()
	if err != nil {
		return r, fmt.Errorf("locate running executable: %w", err)
	}

	return r, nil
}

// run executes the workflow for this runner instance:
// 1) Fetch the remote manifest.
// 2) Compare versions.
// 3) Download the release binary when newer.
// 4) Apply it over the running executable.
func (r *runner) run(ctx context.Context) error {
	logger.Info(ctx, "Downloading the release manifest")

	if err := r.fillDescription(ctx); err != nil {
		return fmt.Errorf("download release manifest: %w", err)
	}

	currentVersion := version.Short()
	remoteVersion := r.description.VersionNumber

	if driver.Compare(currentVersion, remoteVersion) != driver.Newer {
		logger.InfoKV(ctx, "Already up to date",
			"current", currentVersion, "published", remoteVersion)

		return nil
	}

	logger.InfoKV(ctx, "New release available",
		"current", currentVersion, "published", remoteVersion)

	downloadedPath, err := r.downloadExecutable(ctx)
	if err != nil {
		return fmt.Errorf("download release binary: %w", err)
	}

	if err = r.applyUpdate(ctx, downloadedPath); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	logger.InfoKV(ctx, "Self-update completed", "version", remoteVersion)

	return nil
}

// fillDescription downloads and parses the remote release manifest.
func (r *runner) fillDescription(ctx context.Context) error {
	data, err := r.fetchServerFile(ctx, ManifestFilename, r.cfg.ResolveTimeout)
	if err != nil {
		return err
	}

	var desc Description
	if err = yaml.Unmarshal(data, &desc); err != nil {
		return err
	}

	if desc.VersionNumber == "" {
		return errEmptyDescription
	}

	if desc.Executable == "" {
		return errNoExecutable
	}

	r.description = &desc

	return nil
}

// downloadExecutable fetches the release binary into a temporary directory.
func (r *runner) downloadExecutable(ctx context.Context) (string, error) {
	temporaryDirectory, err := os.MkdirTemp("", "nvidia-driver-check-update-")
	if err != nil {
		return "", err
	}

	r.temporaryDirectory = temporaryDirectory

	data, err := r.fetchServerFile(ctx, r.description.Executable, r.cfg.DownloadTimeout)
	if err != nil {
		return "", err
	}

	outputPath := filepath.Clean(filepath.Join(temporaryDirectory, r.description.Executable))
	if err = os.WriteFile(outputPath, data, DefaultFileMode); err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Downloaded release binary", "path", outputPath)

	return outputPath, nil
}

// applyUpdate replaces the running executable with the downloaded binary,
// verifying the manifest checksum.
func (r *runner) applyUpdate(ctx context.Context, downloadedPath string) error {
	data, err := os.ReadFile(filepath.Clean(downloadedPath))
	if err != nil {
		return err
	}

	checksumBase64, ok := r.description.Files[r.description.Executable]
	if !ok {
		return fmt.Errorf("checksum for %s: %w", r.description.Executable, errNoChecksum)
	}

	checksum, err := base64.StdEncoding.DecodeString(checksumBase64)
	if err != nil {
		return err
	}

	logger.DebugKV(ctx, "Applying update", "target", r.targetPath)

	options := goupdate.Options{
		TargetPath: r.targetPath,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return err
	}

	oldPath := r.targetPath + ".old"
	if _, err = os.Stat(oldPath); err == nil {
		_ = os.Remove(oldPath)
	}

	return nil
}

// fetchServerFile fetches a file from the update folder within the timeout.
func (r *runner) fetchServerFile(ctx context.Context, fileName string, timeout time.Duration) ([]byte, error) {
	serverUpdateURL, err := url.Parse(r.cfg.SelfUpdateFolder)
	if err != nil {
		return nil, err
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	serverUpdateURL.Path = path.Join(serverUpdateURL.Path, fileName)
	finalURL := serverUpdateURL.String()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	return io.ReadAll(response.Body)
}

// cleanup removes temporary artifacts and the running marker.
func (r *runner) cleanup(ctx context.Context) {
	if _, err := os.Stat(markerPath()); err == nil {
		_ = os.Remove(markerPath())
	}

	if r.temporaryDirectory != "" {
		if _, err := os.Stat(r.temporaryDirectory); err == nil {
			_ = os.RemoveAll(r.temporaryDirectory)
		}
	}

	logger.Info(ctx, "The self-update has finished")
}
