// Package driver contains core domain types for driver inspection.
//
// It defines State (the detected driver installation and GPU properties)
// and the pure version comparison used to decide whether an upgrade is
// warranted. Versions are compared only via their embedded numeric
// components; malformed input defaults to Equal so a broken version string
// can never trigger an update.
package driver
