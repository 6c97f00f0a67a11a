package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/imgkit/internal/history"
)

// execute runs the root command with args and returns what it printed.
// Global flags are reset first; subcommand flags keep their previous
// values, so tests pass them explicitly.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	configPath, jsonOutput, logLevel = "", false, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// testConfig writes a config that keeps all state under a temp dir.
func testConfig(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	content := `
[log]
level = "error"

[memory]
path = "` + filepath.Join(tmp, "saved_dirs.txt") + `"

[history]
enabled = true
path = "` + filepath.Join(tmp, "history.db") + `"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeImage(t *testing.T, dir, name string, offset int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0644))
	mtime := time.Date(2024, 5, 1, 12, offset, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "imgkit dev\n", out)
}

func TestSequence_DryRunThenRun(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	writeImage(t, dir, "b.jpg", 2)
	writeImage(t, dir, "a.png", 1)

	out, err := execute(t, "", "sequence", dir, "--dry-run=true", "--remember=false", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "a.png -> 1.png")
	assert.Contains(t, out, "b.jpg -> 2.jpg")
	assert.FileExists(t, filepath.Join(dir, "a.png"), "dry run changes nothing")

	out, err = execute(t, "", "sequence", dir, "--dry-run=false", "--remember=true", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "renamed: a.png -> 1.png")
	assert.FileExists(t, filepath.Join(dir, "1.png"))
	assert.FileExists(t, filepath.Join(dir, "2.jpg"))

	out, err = execute(t, "", "dirs", "--json", "--config", cfg)
	require.NoError(t, err)
	var dirs map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &dirs))
	assert.Equal(t, dir, dirs["rename_dir"])
}

func TestSequence_UsesRememberedDir(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	writeImage(t, dir, "x.jpg", 0)

	_, err := execute(t, "", "sequence", dir, "--dry-run=true", "--remember=false", "--config", cfg)
	require.NoError(t, err)

	_, err = execute(t, "", "sequence", "--dry-run=false", "--remember=false", "--config", cfg)
	require.Error(t, err, "nothing remembered yet")

	_, err = execute(t, "", "sequence", dir, "--dry-run=false", "--remember=true", "--config", cfg)
	require.NoError(t, err)

	writeImage(t, dir, "y.jpg", 5)
	out, err := execute(t, "", "sequence", "--dry-run=true", "--remember=false", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "y.jpg -> 2.jpg")
}

func TestMerge_AndHistory(t *testing.T) {
	cfg := testConfig(t)
	root := t.TempDir()
	writeImage(t, filepath.Join(root, "A"), "img2.jpg", 0)
	writeImage(t, filepath.Join(root, "B"), "1.png", 0)

	out, err := execute(t, "", "merge", root, "--dry-run=false", "--remember=false", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "merged 2 images into:")
	assert.FileExists(t, filepath.Join(root, "合集", "1.jpg"))
	assert.FileExists(t, filepath.Join(root, "合集", "2.png"))

	out, err = execute(t, "", "history", "--json", "--operation", "merge", "--limit", "5", "--config", cfg)
	require.NoError(t, err)
	var runs []history.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Succeeded)

	out, err = execute(t, "", "history", "show", strconv.FormatInt(runs[0].ID, 10), "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Run #"+strconv.FormatInt(runs[0].ID, 10)+": merge")
	assert.Contains(t, out, "copied: img2.jpg -> 1.jpg")
}

func TestHistory_InvalidOperation(t *testing.T) {
	_, err := execute(t, "", "history", "--operation", "upload", "--limit", "5", "--config", testConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid operation")
}

func TestDownload_FromStdin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/a.png" {
			_, _ = w.Write([]byte("png"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	dir := filepath.Join(t.TempDir(), "out")
	markup := `<img src="` + srv.URL + `/a.png"><img src="` + srv.URL + `/missing.jpg">`

	out, err := execute(t, markup, "download", "--input", "-", "--dir", dir, "--remember=false", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "found 2 image URLs")
	assert.Contains(t, out, "download finished. succeeded: 1, failed: 1")

	data, err := os.ReadFile(filepath.Join(dir, "1.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestDownload_EmptyMarkup(t *testing.T) {
	_, err := execute(t, "   ", "download", "--input", "-", "--dir", t.TempDir(), "--remember=false", "--config", testConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "markup is empty")
}

func TestConfigInitTestShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgkit", "config.toml")

	out, err := execute(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	_, err = execute(t, "", "config", "init", path)
	require.Error(t, err, "existing file is not overwritten")

	out, err = execute(t, "", "config", "test", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid!")

	out, err = execute(t, "", "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `collection_name = "合集"`)
}

func TestConfigTest_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"loud\"\n"), 0644))

	out, err := execute(t, "", "config", "test", path)
	require.Error(t, err)
	assert.Contains(t, out, "log.level")
}
