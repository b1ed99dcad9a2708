package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"epidash/internal/model"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "epidash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 2, cfg.PlaybackOptions().Step)
	require.Equal(t, 300*time.Millisecond, cfg.PlaybackOptions().Interval)
	require.Equal(t, 8.0, cfg.EngineOptions().Scale.MinSpan)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
playback:
  interval: 1s
  step: 1
  allow_reset: true
scale:
  palette: ["#ffffff", "#000000"]
logging:
  level: debug
data:
  facility_load: ""
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, "epidash.db", cfg.Database.Path, "unset keys keep defaults")
	require.True(t, cfg.PlaybackOptions().AllowReset)
	require.Equal(t, time.Second, cfg.PlaybackOptions().Interval)
	require.Equal(t, []string{"#ffffff", "#000000"}, cfg.EngineOptions().Scale.Palette)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, lvl)

	spec := cfg.ImportSpec()
	require.Len(t, spec.Sources, 2)
	require.Equal(t, model.SourceRegions, spec.Sources[0].Kind)
	require.Equal(t, model.SourceFacilities, spec.Sources[1].Kind)
	require.Equal(t, 500*time.Millisecond, spec.Retry.InitialDelay)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("EPIDASH_DB", "/tmp/other.db")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/tmp/other.db", cfg.Database.Path)
}

func TestValidateCollectsErrors(t *testing.T) {
	path := writeConfig(t, `
playback:
  step: 0
  interval: often
scale:
  palette: ["red"]
logging:
  level: loud
`)
	_, err := Load(path)
	require.Error(t, err)
	for _, want := range []string{"playback.step", "playback.interval", "scale.palette", "logging.level"} {
		require.ErrorContains(t, err, want)
	}
}

func TestLoadMissingOrBrokenFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "server: [unterminated"))
	require.ErrorContains(t, err, "parse config")
}
