package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.jsonc"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "foresight", "config.jsonc"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "foresight", "config.jsonc"), resolved)
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.jsonc")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExistingJSONCParsesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	contents := `
{
  "assistant": {
    "base_url": "http://127.0.0.1:8443"
  },
  "gesture": {
    "hold_ms": 700
  },
  "frames": {
    "enable": false
  }
}
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.Equal(t, "http://127.0.0.1:8443", loaded.Config.Assistant.BaseURL)
	require.Equal(t, 700, loaded.Config.Gesture.HoldMS)
	require.False(t, loaded.Config.Frames.Enable)
}

func TestLoadEnvironmentOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	contents := `{ "assistant": { "base_url": "http://from-file:8000" }, "gesture": { "hold_ms": 700 } }`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	t.Setenv("FORESIGHT_ASSISTANT_URL", "http://from-env:9000")
	t.Setenv("FORESIGHT_HOLD_MS", "450")
	t.Setenv("FORESIGHT_FRAMES_ENABLE", "false")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://from-env:9000", loaded.Config.Assistant.BaseURL)
	require.Equal(t, 450, loaded.Config.Gesture.HoldMS)
	require.False(t, loaded.Config.Frames.Enable)
}

func TestLoadInvalidEnvironmentOverrideFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	t.Setenv("FORESIGHT_ASSISTANT_URL", "not-a-url")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "environment overrides")
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{ not-json }"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
	require.Contains(t, err.Error(), path)
}
