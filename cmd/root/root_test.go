package root

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"id", "opt-out", "version", "send-event"} {
		require.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "itelemetry version")
}
