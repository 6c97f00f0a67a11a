package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgkit", "config.toml")

	require.NoError(t, WriteDefault(path), "WriteDefault failed")

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read written file")
	assert.Contains(t, string(content), "[download]")
	assert.Contains(t, string(content), "[merge]")
	assert.Contains(t, string(content), "${IMGKIT_USER_AGENT:-imgkit/dev}")
}

func TestWriteDefault_Loads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err, "default config must load without env vars")
	assert.Empty(t, cfg.Validate())
	assert.Equal(t, "合集", cfg.Merge.CollectionName)
}

func TestWriteDefault_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0644))

	err := WriteDefault(path)
	assert.ErrorIs(t, err, os.ErrExist)

	content, _ := os.ReadFile(path)
	assert.Equal(t, "keep", string(content))
}

func TestEncode_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Download.UserAgent = "roundtrip"

	out, err := cfg.Encode()
	require.NoError(t, err)
	assert.Contains(t, out, `timeout = "10s"`)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0644))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
