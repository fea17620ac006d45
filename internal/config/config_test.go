package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, format validations and defaulting.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Nil config.
	require.Error(t, Validate(nil))

	// Missing latest version URL.
	cfg := new(Config)

	err := Validate(cfg)
	require.Error(t, err)

	// Bad URL.
	cfg = &Config{
		LatestVersionURL: "not a url",
		DownloadBaseURL:  "https://example.com/drivers",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Okay; empty timeouts fall back to defaults.
	cfg = &Config{
		LatestVersionURL: "https://example.com/latest.txt",
		DownloadBaseURL:  "https://example.com/drivers",
	}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultQueryTimeout, cfg.QueryTimeout)
	require.Equal(t, DefaultResolveTimeout, cfg.ResolveTimeout)
	require.Equal(t, DefaultDownloadTimeout, cfg.DownloadTimeout)
	require.Equal(t, DefaultInstallTimeout, cfg.InstallTimeout)
	require.Equal(t, DefaultManualDownloadURL, cfg.ManualDownloadURL)
}

// TestLoadMissingFile ensures a missing settings file yields the defaults.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := Default()
	cfg.LatestVersionURL = "https://mirror.local/latest.txt"
	cfg.DownloadBaseURL = "https://mirror.local/drivers"
	cfg.DownloadTimeout = 42 * time.Second

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.LatestVersionURL, loaded.LatestVersionURL)
	require.Equal(t, cfg.DownloadBaseURL, loaded.DownloadBaseURL)
	require.Equal(t, cfg.DownloadTimeout, loaded.DownloadTimeout)
}
