package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{configFileEnvVar, apiURLEnvVar, sessionEnvVar, teamEnvVar, clientIDEnvVar, logLevelEnvVar} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.TUI.AltScreen)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://kodiak.internal.test/api
  timeout: 3s
team_id: from-file
tui:
  interval: 30s
  no_color: true
logging:
  level: debug
`), 0o600))
	t.Setenv(teamEnvVar, "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://kodiak.internal.test/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "from-env", cfg.TeamID)
	assert.Equal(t, 30*time.Second, cfg.TUI.Interval)
	assert.True(t, cfg.TUI.NoColor)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, path, cfg.Path())
}

func TestLoadFileIgnoresEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("team_id: from-file\n"), 0o600))
	t.Setenv(teamEnvVar, "from-env")
	t.Setenv(sessionEnvVar, "env-session")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.TeamID)
	assert.Empty(t, cfg.API.Session)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KODIAK_TEAM_ID=\"unterminated\n"), 0o600))
	chdir(t, dir)

	_, err := Load(filepath.Join(dir, "config.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env")
}

func TestLoadWithoutDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	_, err := Load(filepath.Join(dir, "config.yaml"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty url":        func(c *Config) { c.API.BaseURL = "" },
		"bad scheme":       func(c *Config) { c.API.BaseURL = "ftp://x" },
		"zero timeout":     func(c *Config) { c.API.Timeout = 0 },
		"negative refresh": func(c *Config) { c.TUI.Interval = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTripsSessionWithPrivatePermissions(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.API.Session = "sess-1"
	cfg.TeamID = "T1"
	require.NoError(t, cfg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", reloaded.API.Session)
	assert.Equal(t, "T1", reloaded.TeamID)
	assert.Equal(t, cfg.API.Timeout, reloaded.API.Timeout)
}

func TestNewLoggerConsoleAndFile(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(LoggingConfig{Level: "warn"}, &buf)
	require.NoError(t, err)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	require.NoError(t, closer.Close())
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	path := filepath.Join(t.TempDir(), "logs", "dashboard.log")
	logger, closer, err = NewLogger(LoggingConfig{Level: "nonsense", File: path}, &buf)
	require.NoError(t, err)
	logger.Info().Str("op", "getActivity").Msg("api request")
	require.NoError(t, closer.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"op":"getActivity"`)
}
