package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	origVersion, origCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })

	Version, Commit = "1.2.3", "unknown"
	require.Equal(t, "1.2.3", String())

	Commit = "abc123"
	require.Equal(t, "1.2.3+abc123", String())
}
