package driver

import (
	"regexp"
	"strconv"
)

// Comparison describes how the latest published version relates to the
// currently installed one.
type Comparison int

const (
	// Equal means both versions carry the same numeric components, or at
	// least one of them could not be parsed (fail-safe: never triggers a
	// spurious update).
	Equal Comparison = iota
	// Newer means the latest version is ahead of the current one.
	Newer
	// Older means the current version is ahead of the latest release.
	Older
)

// String returns a human-readable name for logging.
func (c Comparison) String() string {
	switch c {
	case Newer:
		return "newer"
	case Older:
		return "older"
	default:
		return "equal"
	}
}

// digitRuns matches maximal runs of decimal digits inside a version string.
var digitRuns = regexp.MustCompile(`\d+`)

// Compare reports how latest relates to current.
//
// Both identifiers are reduced to their ordered numeric components: every
// maximal digit run becomes one integer, everything else is discarded, so
// "580.105.08" and "580-105-08" compare equal. The sequences are then
// compared lexicographically; a strict prefix is considered smaller.
// When either side yields no numeric components, or a component does not fit
// in an int, the result is Equal.
func Compare(current, latest string) Comparison {
	currentTuple, ok := versionTuple(current)
	if !ok {
		return Equal
	}

	latestTuple, ok := versionTuple(latest)
	if !ok {
		return Equal
	}

	for i := 0; i < len(currentTuple) && i < len(latestTuple); i++ {
		switch {
		case latestTuple[i] > currentTuple[i]:
			return Newer
		case latestTuple[i] < currentTuple[i]:
			return Older
		}
	}

	switch {
	case len(latestTuple) > len(currentTuple):
		return Newer
	case len(latestTuple) < len(currentTuple):
		return Older
	default:
		return Equal
	}
}

// versionTuple extracts the ordered numeric components of a version string.
// The second return value is false when the string has no digits or a digit
// run overflows int.
func versionTuple(s string) ([]int, bool) {
	runs := digitRuns.FindAllString(s, -1)
	if len(runs) == 0 {
		return nil, false
	}

	parts := make([]int, 0, len(runs))

	for _, run := range runs {
		n, err := strconv.Atoi(run)
		if err != nil {
			return nil, false
		}

		parts = append(parts, n)
	}

	return parts, true
}
