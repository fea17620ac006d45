// Package elevate runs commands with elevated operating-system rights.
//
// The Runner interface bounds every invocation with an explicit timeout and
// reports the result as an Outcome (exit code or timeout) so callers can
// surface failures to the user without crashing. Production code uses
// SudoRunner; tests inject fakes.
package elevate
