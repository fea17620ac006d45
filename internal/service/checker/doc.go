// Package checker runs the complete driver check: detect the driver via the
// diagnostic command, report version and GPU properties, then either offer a
// fresh install (no driver) or delegate to the update check. Only the
// "no driver and fresh install did not succeed" condition surfaces as an
// error to the process boundary.
package checker
