package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schliweb/docscan/internal/geometry"
)

func TestRootCommand(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "docscan", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

// resetRootFlags clears flag state that persists on the shared rootCmd
// across Execute calls, so the tests do not depend on execution order.
func resetRootFlags(t *testing.T) {
	t.Helper()
	if f := rootCmd.Flags().Lookup("help"); f != nil {
		require.NoError(t, f.Value.Set("false"))
	}
	require.NoError(t, rootCmd.PersistentFlags().Set("version", "false"))
}

func TestRootCommandHelp(t *testing.T) {
	resetRootFlags(t)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)

	rootCmd.SetArgs([]string{"--help"})
	require.NoError(t, rootCmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Document scanning pipeline")
	assert.Contains(t, output, "Available Commands:")
	assert.Contains(t, output, "Usage:")
}

func TestRootCommandVersion(t *testing.T) {
	resetRootFlags(t)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)

	rootCmd.SetArgs([]string{"--version"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, buf.String(), "docscan version")
}

func TestRootCommandSubcommands(t *testing.T) {
	subcommands := rootCmd.Commands()
	commandNames := make([]string, len(subcommands))
	for i, subcmd := range subcommands {
		commandNames[i] = subcmd.Name()
	}

	for _, expected := range []string{"detect", "rectify", "preview", "serve"} {
		assert.Contains(t, commandNames, expected, "Expected subcommand '%s' not found", expected)
	}
}

func TestParseCorners(t *testing.T) {
	quad, err := parseCorners("590,430,50,50,50,430,590,50")
	require.NoError(t, err)
	assert.Equal(t, geometry.Point{X: 50, Y: 50}, quad[0])
	assert.Equal(t, geometry.Point{X: 590, Y: 430}, quad[2])

	_, err = parseCorners("1,2,3")
	assert.Error(t, err)
	_, err = parseCorners("not,numbers,at,all,not,numbers,at,all")
	assert.Error(t, err)
}
