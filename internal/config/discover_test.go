package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	path := DefaultPath()
	assert.Contains(t, path, filepath.Join(".config", "imgkit", "config.toml"))
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	assert.Equal(t, "/custom/config/imgkit/config.toml", DefaultPath())
}

func TestDiscover_EnvVar(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[log]"), 0644))
	t.Setenv(EnvVar, cfgPath)

	path, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, cfgPath, path)
}

func TestDiscover_EnvVarNotFound(t *testing.T) {
	t.Setenv(EnvVar, "/nonexistent/config.toml")

	_, err := Discover()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvVar)
	assert.NotErrorIs(t, err, ErrNotFound, "an explicit path is not a search miss")
}

func TestDiscover_CurrentDir(t *testing.T) {
	tmp := t.TempDir()
	t.Chdir(tmp)
	t.Setenv(EnvVar, "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "xdg"))
	require.NoError(t, os.WriteFile("config.toml", []byte("[log]"), 0644))

	path, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, "./config.toml", path)
}

func TestDiscover_XDG(t *testing.T) {
	tmp := t.TempDir()
	t.Chdir(tmp)
	t.Setenv(EnvVar, "")
	xdg := filepath.Join(tmp, "xdg")
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "imgkit"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "imgkit", "config.toml"), []byte("[log]"), 0644))

	path, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, "imgkit", "config.toml"), path)
}

func TestDiscover_NotFound(t *testing.T) {
	if _, err := os.Stat("/etc/imgkit/config.toml"); err == nil {
		t.Skip("system config present")
	}
	tmp := t.TempDir()
	t.Chdir(tmp)
	t.Setenv(EnvVar, "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "xdg"))

	_, err := Discover()
	assert.ErrorIs(t, err, ErrNotFound)
}
