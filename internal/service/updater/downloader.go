package updater

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/config"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/logger"
)

// Downloader streams a remote artifact to local storage in fixed-size chunks,
// rendering transfer progress when the server announces a Content-Length.
// Partial files are not cleaned up here; the caller's temporary scope removes
// them on every exit path.
type Downloader struct {
	client   *http.Client
	timeout  time.Duration
	progress io.Writer
}

// NewDownloader returns a Downloader rendering progress to the given writer.
func NewDownloader(cfg *config.Config, progress io.Writer) *Downloader {
	return &Downloader{
		client:   http.DefaultClient,
		timeout:  cfg.DownloadTimeout,
		progress: progress,
	}
}

// Download fetches url into destinationPath and finally marks the file
// executable for owner, group and others. There is no resume: a failed
// transfer must be restarted from zero.
func (d *Downloader) Download(ctx context.Context, url, destinationPath string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	req.Header.Set("User-Agent", browserUserAgent)

	response, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s, %s: %w", url, response.Status, errBadHTTPStatus)
	}

	if err = d.writeBody(ctx, response, destinationPath); err != nil {
		return err
	}

	return markExecutable(destinationPath)
}

// writeBody copies the response body to the destination chunk by chunk.
func (d *Downloader) writeBody(ctx context.Context, response *http.Response, destinationPath string) error {
	outputFile, err := os.Create(filepath.Clean(destinationPath))
	if err != nil {
		return fmt.Errorf("create %s: %w", destinationPath, err)
	}

	defer func() {
		_ = outputFile.Close()
	}()

	bar := d.newProgressBar(response.ContentLength)

	buffer := make([]byte, downloadChunkSize)

	for {
		n, readErr := response.Body.Read(buffer)
		if n > 0 {
			if _, writeErr := outputFile.Write(buffer[:n]); writeErr != nil {
				return fmt.Errorf("write %s: %w", destinationPath, writeErr)
			}

			if bar != nil {
				_ = bar.Add(n)
			}
		}

		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			return fmt.Errorf("read response body: %w", readErr)
		}
	}

	if bar != nil {
		_ = bar.Finish()
		_, _ = fmt.Fprintln(d.progress)
	}

	logger.InfoKV(ctx, "Download complete", "path", destinationPath)

	return nil
}

// newProgressBar builds a bar when the size is known; without a
// Content-Length there is nothing meaningful to render.
func (d *Downloader) newProgressBar(contentLength int64) *progressbar.ProgressBar {
	if contentLength <= 0 || d.progress == nil {
		return nil
	}

	return progressbar.NewOptions64(contentLength,
		progressbar.OptionSetWriter(d.progress),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

// markExecutable adds execute permission for owner, group and others,
// keeping the remaining mode bits intact.
func markExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err = os.Chmod(path, info.Mode()|executableBits); err != nil {
		return fmt.Errorf("mark %s executable: %w", path, err)
	}

	return nil
}
