// Package updater orchestrates the driver upgrade workflow.
//
// It resolves the latest published version from the remote index, downloads
// the installer artifact into a scoped temporary directory with progress
// reporting, and executes it with elevated rights after an explicit
// interactive confirmation. Failures at every step degrade into user-facing
// guidance plus a manual-download fallback URL; nothing here terminates the
// process.
package updater
