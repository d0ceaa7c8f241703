package cmd

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteWritesOutputToStdout(t *testing.T) {
	resetFlags()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() {
		os.Stdout = stdout
		rootCmd.SetOut(nil)
	}()

	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"version", "--log-level", "error"})
	require.NoError(t, Execute())
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), "mcpchat ")
}
