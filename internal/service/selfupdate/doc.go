// Package selfupdate replaces the running tool binary with the latest
// published release.
//
// It downloads a YAML manifest (version, executable name, checksums) from the
// configured update folder, compares the published version against the build
// version, downloads the new binary into a temporary directory and applies it
// atomically over the running executable with checksum verification. A marker
// file prevents parallel runs.
package selfupdate
