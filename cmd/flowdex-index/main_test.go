package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdHasRunSubcommand(t *testing.T) {
	root := newRootCmd()
	cmd, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	assert.Equal(t, "run", cmd.Name())
}

func TestRunCmdConfigFlagDefault(t *testing.T) {
	cmd := newRunCmd()
	flag := cmd.Flags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "flowdex.yaml", flag.DefValue)
}
