package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: staging
healthCheckInterval: 10
services:
  - name: market-data
    maxRetries: 5
`), 0644))

	cmd := newStatusCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", path})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "environment:          staging (prefix STAGING)")
	assert.Contains(t, out.String(), "health interval:      10s")
	assert.Contains(t, out.String(), "market-data (enabled=true, pollInterval=30s, maxRetries=5)")
}

func TestStatusCommand_InvalidEnvironment(t *testing.T) {
	cmd := newStatusCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--environment", "moon"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid environment")
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["status"])
	assert.True(t, names["version"])
}
