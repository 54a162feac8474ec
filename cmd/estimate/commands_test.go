package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTaskCommand(t *testing.T) {
	out, err := runCLI(t, "task", "speech", "--chars", "400")
	require.NoError(t, err)
	assert.Equal(t, "speech: 100s\n", out)

	out, err = runCLI(t, "task", "lip_sync", "--audio-seconds", "16")
	require.NoError(t, err)
	assert.Equal(t, "lip_sync: 480s\n", out)

	_, err = runCLI(t, "task")
	assert.Error(t, err)
}

func TestCostCommands(t *testing.T) {
	out, err := runCLI(t, "cost", "voice", "--chars", "1001")
	require.NoError(t, err)
	assert.Equal(t, "0.50 credits\n", out)

	out, err = runCLI(t, "cost", "video", "--audio-seconds", "10")
	require.NoError(t, err)
	assert.Equal(t, "2.00 credits\n", out)

	_, err = runCLI(t, "cost", "voice", "--chars", "-5")
	assert.Error(t, err)
}

func TestRemainingCommand(t *testing.T) {
	started := time.Now().Add(-time.Hour).Format(time.RFC3339)
	out, err := runCLI(t, "remaining", "--started-at", started, "--seconds", "30")
	require.NoError(t, err)
	assert.Equal(t, "Almost done...\n", out)

	_, err = runCLI(t, "remaining", "--started-at", "yesterday")
	assert.Error(t, err)
}
