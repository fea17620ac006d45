package selfupdate

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/config"
	"github.com/Duratori/Linux-Nvidia-Driver-Installer-Updater/internal/version"
)

// manifestYAML renders a release manifest for the test server.
func manifestYAML(t *testing.T, desc *Description) []byte {
	t.Helper()

	data, err := yaml.Marshal(desc)
	require.NoError(t, err)

	return data
}

// releaseServer serves a manifest and a binary payload from one folder.
func releaseServer(t *testing.T, manifest, binary []byte, executable string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/"+ManifestFilename, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(manifest)
	})
	mux.HandleFunc("/"+executable, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(binary)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

// newTestRunner builds a runner against the given update folder and target.
func newTestRunner(folder, target string) *runner {
	cfg := config.Default()
	cfg.SelfUpdateFolder = folder

	return &runner{
		cfg:        cfg,
		targetPath: target,
	}
}

// TestGetFileChecksum matches a locally computed SHA-512.
func TestGetFileChecksum(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, []byte("release bits"), 0o600))

	sum, err := GetFileChecksum(path)
	require.NoError(t, err)

	expected := sha512.Sum512([]byte("release bits"))
	require.Equal(t, expected[:], sum)
}

// TestIsUpdaterRunningNow detects a fresh marker and tolerates a missing one.
func TestIsUpdaterRunningNow(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	ctx := context.Background()
	require.False(t, IsUpdaterRunningNow(ctx))

	marker, err := os.Create(markerPath())
	require.NoError(t, err)
	require.NoError(t, marker.Close())

	require.True(t, IsUpdaterRunningNow(ctx))
}

// TestRunAlreadyUpToDate stops after the manifest when nothing newer exists.
func TestRunAlreadyUpToDate(t *testing.T) {
	t.Parallel()

	manifest := manifestYAML(t, &Description{
		VersionNumber: version.Short(),
		Executable:    toolExecutableName,
		Files:         map[string]string{},
	})
	server := releaseServer(t, manifest, nil, toolExecutableName)

	target := filepath.Join(t.TempDir(), toolExecutableName)
	require.NoError(t, os.WriteFile(target, []byte("current"), 0o755))

	r := newTestRunner(server.URL, target)
	require.NoError(t, r.run(context.Background()))

	// Target untouched, no download happened.
	contents, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "current", string(contents))
	require.Empty(t, r.temporaryDirectory)
}

// TestRunAppliesUpdate downloads a newer release and replaces the target
// binary after checksum verification.
func TestRunAppliesUpdate(t *testing.T) {
	t.Parallel()

	binary := []byte("new release bits")
	checksum := sha512.Sum512(binary)

	manifest := manifestYAML(t, &Description{
		VersionNumber: "999.0.0",
		Executable:    toolExecutableName,
		Files: map[string]string{
			toolExecutableName: base64.StdEncoding.EncodeToString(checksum[:]),
		},
	})
	server := releaseServer(t, manifest, binary, toolExecutableName)

	target := filepath.Join(t.TempDir(), toolExecutableName)
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o755))

	r := newTestRunner(server.URL, target)
	require.NoError(t, r.run(context.Background()))

	contents, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, binary, contents)

	info, err := os.Stat(target)
	require.NoError(t, err)
	require.Equal(t, DefaultFileMode, info.Mode().Perm())

	// The backup left by the apply step was removed.
	require.NoFileExists(t, target+".old")

	r.cleanup(context.Background())
	require.NoDirExists(t, r.temporaryDirectory)
}

// TestRunRejectsWrongChecksum refuses to replace the binary on a mismatch.
func TestRunRejectsWrongChecksum(t *testing.T) {
	t.Parallel()

	wrong := sha512.Sum512([]byte("something else"))

	manifest := manifestYAML(t, &Description{
		VersionNumber: "999.0.0",
		Executable:    toolExecutableName,
		Files: map[string]string{
			toolExecutableName: base64.StdEncoding.EncodeToString(wrong[:]),
		},
	})
	server := releaseServer(t, manifest, []byte("new release bits"), toolExecutableName)

	target := filepath.Join(t.TempDir(), toolExecutableName)
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o755))

	r := newTestRunner(server.URL, target)
	require.Error(t, r.run(context.Background()))

	contents, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "old", string(contents))

	r.cleanup(context.Background())
}

// TestFillDescriptionValidation rejects incomplete manifests.
func TestFillDescriptionValidation(t *testing.T) {
	t.Parallel()

	manifest := manifestYAML(t, &Description{VersionNumber: "2.0.0"})
	server := releaseServer(t, manifest, nil, toolExecutableName)

	r := newTestRunner(server.URL, "")
	require.ErrorIs(t, r.fillDescription(context.Background()), errNoExecutable)
}

// TestFetchServerFileBadStatus maps non-200 responses to an error.
func TestFetchServerFileBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	r := newTestRunner(server.URL, "")

	_, err := r.fetchServerFile(context.Background(), ManifestFilename, config.DefaultResolveTimeout)
	require.ErrorIs(t, err, errBadHTTPStatus)
}
