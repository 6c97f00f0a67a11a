package images

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFile(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	srcPath := filepath.Join(srcDir, "photo.jpg")
	content := []byte("jpeg bytes")
	require.NoError(t, os.WriteFile(srcPath, content, 0640))

	dstPath := filepath.Join(dstDir, "copied.jpg")
	size, err := CopyFile(srcPath, dstPath)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)

	got, err := os.ReadFile(dstPath)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestCopyFile_PreservesModTime(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "old.png")
	require.NoError(t, os.WriteFile(srcPath, []byte("png"), 0644))

	mtime := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, os.Chtimes(srcPath, mtime, mtime))

	dstPath := filepath.Join(dir, "new.png")
	_, err := CopyFile(srcPath, dstPath)
	require.NoError(t, err)

	info, err := os.Stat(dstPath)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime), "mtime = %v, want %v", info.ModTime(), mtime)
}

func TestCopyFile_CreatesDirectory(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	srcPath := filepath.Join(srcDir, "a.gif")
	require.NoError(t, os.WriteFile(srcPath, []byte("gif"), 0644))

	dstPath := filepath.Join(dstDir, "nested", "deep", "a.gif")
	_, err := CopyFile(srcPath, dstPath)
	require.NoError(t, err)

	_, err = os.Stat(dstPath)
	assert.NoError(t, err, "destination file should exist")
}

func TestCopyFile_DestinationExists(t *testing.T) {
	dir := t.TempDir()

	srcPath := filepath.Join(dir, "a.jpg")
	require.NoError(t, os.WriteFile(srcPath, []byte("new"), 0644))
	dstPath := filepath.Join(dir, "b.jpg")
	require.NoError(t, os.WriteFile(dstPath, []byte("existing"), 0644))

	_, err := CopyFile(srcPath, dstPath)
	assert.ErrorIs(t, err, ErrDestinationExists)

	got, _ := os.ReadFile(dstPath)
	assert.Equal(t, "existing", string(got), "existing file must be left alone")
}

func TestReplaceFile_Overwrites(t *testing.T) {
	dir := t.TempDir()

	srcPath := filepath.Join(dir, "a.jpg")
	require.NoError(t, os.WriteFile(srcPath, []byte("new"), 0644))
	dstPath := filepath.Join(dir, "b.jpg")
	require.NoError(t, os.WriteFile(dstPath, []byte("existing content"), 0644))

	size, err := ReplaceFile(srcPath, dstPath)
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)

	got, _ := os.ReadFile(dstPath)
	assert.Equal(t, "new", string(got))
}

func TestCopyFile_SourceNotFound(t *testing.T) {
	dstDir := t.TempDir()
	_, err := CopyFile("/nonexistent/file.jpg", filepath.Join(dstDir, "out.jpg"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCopyFailed))
}
