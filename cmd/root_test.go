package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_SubcommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"check", "sequence", "deps", "list", "clean", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, want := range []string{builderFlagName, rootFlagName, formatFlagName, noCacheFlagName} {
		require.NotNil(t, rootCmd.PersistentFlags().Lookup(want), "missing flag %q", want)
	}
}

func TestParsePaths(t *testing.T) {
	root := t.TempDir()

	paths := parsePaths(root, []string{"a.vhd", "sub/b.vhd"})
	require.Len(t, paths, 2)
	assert.Equal(t, root+"/a.vhd", paths[0].Name())
	assert.Equal(t, root+"/sub/b.vhd", paths[1].Name())
}
