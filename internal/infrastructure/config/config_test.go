package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "7350", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:7350", cfg.Addr())
	assert.NotEmpty(t, cfg.Workspace.Root)
	assert.NotEmpty(t, cfg.Workspace.DataDir)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MDEDITOR_PORT", "9999")
	t.Setenv("MDEDITOR_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, "assets", s.UploadFolder)
	assert.True(t, s.UseHostTheme)
	assert.Empty(t, s.CustomCSS)
	assert.False(t, s.DefaultEditor)
	assert.Equal(t, 10, s.DisposeDelaySeconds)
	assert.Equal(t, 10*time.Second, s.DisposeDelay())
}

func TestLoadSettingsMissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoadSettingsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("upload_folder: ${projectRoot}/img\ntheme: dark\n"), 0o644))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "${projectRoot}/img", s.UploadFolder)
	assert.Equal(t, "dark", s.Theme)
	assert.Equal(t, 10, s.DisposeDelaySeconds, "absent keys keep defaults")
}

func TestLoadSettingsClampsDisposeDelay(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"dispose_delay_seconds: 0", 1},
		{"dispose_delay_seconds: 1", 1},
		{"dispose_delay_seconds: 30", 30},
		{"dispose_delay_seconds: 400", 60},
	}
	for _, tc := range cases {
		path := filepath.Join(t.TempDir(), "settings.yaml")
		require.NoError(t, os.WriteFile(path, []byte(tc.raw), 0o644))

		s, err := LoadSettings(path)
		require.NoError(t, err)
		assert.Equal(t, tc.want, s.DisposeDelaySeconds, tc.raw)
	}
}

func TestLoadSettingsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n\t- nope"), 0o644))

	s, err := LoadSettings(path)
	assert.Error(t, err)
	assert.Equal(t, DefaultSettings(), s, "parse failure falls back to defaults")
}

func TestSettingsNormalizeTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: solarized"), 0o644))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "light", s.Theme)
}
