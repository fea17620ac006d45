// Package common holds capabilities shared by several services.
//
// It provides the Console output sink for user-facing text and the Confirmer
// prompt used to gate downloads and privileged installs. Both are small
// interfaces so services stay testable with deterministic doubles.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
