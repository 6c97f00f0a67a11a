package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.jpg", true},
		{"a.JPG", true},
		{"a.jpeg", true},
		{"a.png", true},
		{"a.gif", true},
		{"a.bmp", true},
		{"a.webp", true},
		{"a.Avif", true},
		{"a.tiff", false},
		{"a.txt", false},
		{"jpg", false},
		{".jpg", false},
		{"archive.jpg.zip", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsImageFile(tt.name))
		})
	}
}

func TestNumericToken(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"img1.png", 1},
		{"img2.png", 2},
		{"3.jpg", 3},
		{"cover.jpg", 0},
		{"page007_v2.jpg", 7},
		{"a12b34.png", 12},
		{"99999999999999999999999.png", int(^uint(0) >> 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NumericToken(tt.name))
		})
	}
}

func TestRequireDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.jpg")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	assert.NoError(t, RequireDir(dir))
	assert.ErrorIs(t, RequireDir(file), ErrNotADirectory)
	assert.ErrorIs(t, RequireDir(filepath.Join(dir, "missing")), ErrNotADirectory)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "notes.txt", ".jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.jpg"), 0755))

	files, err := List(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	// os.ReadDir order is by name
	assert.Equal(t, "a.JPG", files[0].Name)
	assert.Equal(t, ".JPG", files[0].Ext)
	assert.Equal(t, filepath.Join(dir, "a.JPG"), files[0].Path)
	assert.Equal(t, "b.png", files[1].Name)
	assert.Equal(t, int64(len("b.png")), files[1].Size)
}

func TestList_MissingDir(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestNormalizeName(t *testing.T) {
	decomposed := "Cafe\u0301"
	assert.Equal(t, "Caf\u00e9", NormalizeName(decomposed))
	assert.Equal(t, "合集", NormalizeName("合集"))
}
