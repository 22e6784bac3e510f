package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHelpMentionsTerminalUserInterface(t *testing.T) {
	t.Setenv("KODIAK_DASHBOARD_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	code, stdout, _ := runWithCapturedOutput(t, []string{"--help"})
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "terminal user")
	assert.Contains(t, stdout, "completion")
}

func TestRunUnknownCommandIsUsageError(t *testing.T) {
	t.Setenv("KODIAK_DASHBOARD_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	code, _, stderr := runWithCapturedOutput(t, []string{"bogus"})
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown command")
}

func runWithCapturedOutput(t *testing.T, args []string) (int, string, string) {
	t.Helper()
	origStdout := os.Stdout
	origStderr := os.Stderr
	stdoutR, stdoutW, err := os.Pipe()
	require.NoError(t, err)
	stderrR, stderrW, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run(args)

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = origStdout
	os.Stderr = origStderr

	stdoutBytes, err := io.ReadAll(stdoutR)
	require.NoError(t, err)
	stderrBytes, err := io.ReadAll(stderrR)
	require.NoError(t, err)
	return code, strings.TrimSpace(string(stdoutBytes)), strings.TrimSpace(string(stderrBytes))
}
