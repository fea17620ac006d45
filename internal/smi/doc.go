// Package smi wraps the nvidia-smi diagnostic command.
//
// Each query is an independent subprocess invocation with a bounded timeout.
// Absence of the command, a nonzero exit or a timeout degrade to "no driver
// detected" or "field unavailable" rather than an error that aborts
// reporting of the remaining fields.
package smi
