package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds endpoint URLs and per-step timeouts used by the tool.
type Config struct {
	// LatestVersionURL is the plain-text index whose first token is the
	// latest published driver version.
	LatestVersionURL string `yaml:"latest_version_url"`
	// DownloadBaseURL is the base URL under which driver artifacts are hosted
	// as <base>/<version>/<artifact>.
	DownloadBaseURL string `yaml:"download_base_url"`
	// ManualDownloadURL is shown to the user whenever an automatic step fails.
	ManualDownloadURL string `yaml:"manual_download_url"`
	// SelfUpdateFolder is the optional URL where new releases of this tool
	// are published. Empty disables the self-update command.
	SelfUpdateFolder string `yaml:"self_update_folder"`
	// QueryTimeout bounds each nvidia-smi invocation.
	QueryTimeout time.Duration `yaml:"query_timeout"`
	// ResolveTimeout bounds the latest-version lookup.
	ResolveTimeout time.Duration `yaml:"resolve_timeout"`
	// DownloadTimeout bounds the artifact download.
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	// InstallTimeout bounds the privileged installer run.
	InstallTimeout time.Duration `yaml:"install_timeout"`
}

const (
	// DefaultConfigFilename is the default filename for tool settings.
	DefaultConfigFilename = "nvidia-driver-check-settings.yaml"

	// DefaultLatestVersionURL is the NVIDIA Linux x86_64 latest-version index.
	DefaultLatestVersionURL = "https://download.nvidia.com/XFree86/Linux-x86_64/latest.txt"

	// DefaultDownloadBaseURL is the NVIDIA Linux x86_64 artifact store.
	DefaultDownloadBaseURL = "https://download.nvidia.com/XFree86/Linux-x86_64"

	// DefaultManualDownloadURL is the fallback page for manual installation.
	DefaultManualDownloadURL = "https://www.nvidia.com/Download/index.aspx"

	// DefaultQueryTimeout is the timeout for local diagnostic queries.
	DefaultQueryTimeout = 5 * time.Second

	// DefaultResolveTimeout is the timeout for the latest-version lookup.
	DefaultResolveTimeout = 10 * time.Second

	// DefaultDownloadTimeout is the timeout for downloading the artifact.
	// Driver archives are hundreds of megabytes, so this is generous.
	DefaultDownloadTimeout = 300 * time.Second

	// DefaultInstallTimeout is the timeout for the privileged install run.
	DefaultInstallTimeout = 600 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errLatestURLRequired is returned when the latest-version URL is missing.
	errLatestURLRequired = errors.New("latest version URL must be provided")
	// errDownloadBaseRequired is returned when the download base URL is missing.
	errDownloadBaseRequired = errors.New("download base URL must be provided")
)

// Default returns the compiled-in settings matching NVIDIA's public endpoints.
func Default() *Config {
	return &Config{
		LatestVersionURL:  DefaultLatestVersionURL,
		DownloadBaseURL:   DefaultDownloadBaseURL,
		ManualDownloadURL: DefaultManualDownloadURL,
		QueryTimeout:      DefaultQueryTimeout,
		ResolveTimeout:    DefaultResolveTimeout,
		DownloadTimeout:   DefaultDownloadTimeout,
		InstallTimeout:    DefaultInstallTimeout,
	}
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file is not an error: the tool runs with defaults so that no setup
// is required on a fresh machine.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting,
// filling defaulted values where a field was left empty.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.LatestVersionURL == "" {
		return errLatestURLRequired
	}

	if _, err := url.ParseRequestURI(cfg.LatestVersionURL); err != nil {
		return fmt.Errorf("invalid latest version URL: %w", err)
	}

	if cfg.DownloadBaseURL == "" {
		return errDownloadBaseRequired
	}

	if _, err := url.ParseRequestURI(cfg.DownloadBaseURL); err != nil {
		return fmt.Errorf("invalid download base URL: %w", err)
	}

	if cfg.ManualDownloadURL == "" {
		cfg.ManualDownloadURL = DefaultManualDownloadURL
	}

	if cfg.SelfUpdateFolder != "" {
		if _, err := url.ParseRequestURI(cfg.SelfUpdateFolder); err != nil {
			return fmt.Errorf("invalid self-update folder URI: %w", err)
		}
	}

	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}

	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = DefaultResolveTimeout
	}

	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = DefaultDownloadTimeout
	}

	if cfg.InstallTimeout <= 0 {
		cfg.InstallTimeout = DefaultInstallTimeout
	}

	return nil
}
