package updater

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/config"
)

// Resolver fetches the latest published driver version from the remote
// plain-text index. The index line looks like
// "580.105.08 580.105.08/NVIDIA-Linux-x86_64-580.105.08.run"; only the first
// whitespace-delimited token matters.
type Resolver struct {
	client  *http.Client
	url     string
	timeout time.Duration
}

// NewResolver returns a Resolver for the configured index URL.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{
		client:  http.DefaultClient,
		url:     cfg.LatestVersionURL,
		timeout: cfg.ResolveTimeout,
	}
}

// FetchLatestVersion returns the latest published version identifier.
// Network failure, timeout, a non-2xx response and an empty body all wrap
// into a single error: the caller treats any of them as "unknown".
func (r *Resolver) FetchLatestVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build version request: %w", err)
	}

	req.Header.Set("User-Agent", browserUserAgent)

	response, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch latest version: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%s, %s: %w", r.url, response.Status, errBadHTTPStatus)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("read version index: %w", err)
	}

	fields := strings.Fields(string(body))
	if len(fields) == 0 {
		return "", fmt.Errorf("%s: %w", r.url, errEmptyVersionBody)
	}

	return fields[0], nil
}
