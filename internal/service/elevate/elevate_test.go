package elevate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestOutcomeSucceeded checks the success predicate over the outcome states.
func TestOutcomeSucceeded(t *testing.T) {
	t.Parallel()

	require.True(t, Outcome{}.Succeeded())
	require.False(t, Outcome{ExitCode: 1}.Succeeded())
	require.False(t, Outcome{TimedOut: true}.Succeeded())
}
