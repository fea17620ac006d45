// Package version exposes build metadata (semantic version, commit, build
// time) injected via ldflags and a helper to attach a cobra `version`
// subcommand. The self-update service compares the embedded version against
// the published manifest.
package version
