package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireError asserts that an error occurred and optionally checks the message
func RequireError(t *testing.T, err error, msgContains ...string) {
	t.Helper()

	require.Error(t, err, "Expected an error")

	for _, msg := range msgContains {
		require.Contains(t, err.Error(), msg, "Error message should contain: %s", msg)
	}
}

// RequireCalls asserts the argument vectors a RecordingRunner saw
func RequireCalls(t *testing.T, r *RecordingRunner, want ...[]string) {
	t.Helper()

	if len(want) == 0 {
		require.Empty(t, r.Calls(), "No process should have run")
		return
	}

	require.Equal(t, want, r.Calls(), "Unexpected process invocations")
}
