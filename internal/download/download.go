// Package download fetches image URLs into a directory under sequence-numbered names.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/vmunix/imgkit/internal/images"
)

// Defaults for Config fields left empty.
const (
	DefaultChunkSize = 8192
	DefaultExt       = ".jpg"
)

// partSuffix marks a file that is still being written.
const partSuffix = ".part"

// Fetcher opens a byte stream for a URL.
//
//go:generate mockgen -source=download.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// Fetch returns the body of url. Any transport error or non-success
	// status is returned as an error.
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Item is the outcome for one URL.
type Item struct {
	Index    int    `json:"index"`
	URL      string `json:"url"`
	Status   Status `json:"status"`
	Reason   string `json:"reason,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// Result aggregates a download batch.
type Result struct {
	TargetDir string   `json:"target_dir"`
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Items     []Item   `json:"items"`
	Log       []string `json:"log"`
}

func (r *Result) logf(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}

// Config for the downloader.
type Config struct {
	ChunkSize  int    // copy buffer size in bytes
	DefaultExt string // used when the URL path has no extension
}

// Downloader writes images to disk one URL at a time.
type Downloader struct {
	fetcher    Fetcher
	chunkSize  int
	defaultExt string
	log        *slog.Logger
}

// New creates a downloader. Zero Config fields take the package defaults.
func New(fetcher Fetcher, cfg Config, log *slog.Logger) *Downloader {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.DefaultExt == "" {
		cfg.DefaultExt = DefaultExt
	}
	if !strings.HasPrefix(cfg.DefaultExt, ".") {
		cfg.DefaultExt = "." + cfg.DefaultExt
	}
	return &Downloader{
		fetcher:    fetcher,
		chunkSize:  cfg.ChunkSize,
		defaultExt: cfg.DefaultExt,
		log:        log.With("component", "downloader"),
	}
}

// Run downloads urls into targetDir in order. The file for the i-th URL
// (1-based) is named "<i><ext>" and replaces any existing file of that name.
//
// A failing URL is recorded and the batch continues. Run only returns an
// error when targetDir cannot be created or is not a directory, or when ctx
// is cancelled; in the latter case the partial result is returned
// alongside ctx.Err().
func (d *Downloader) Run(ctx context.Context, urls []string, targetDir string) (*Result, error) {
	result := &Result{TargetDir: targetDir, Total: len(urls)}

	if _, err := os.Stat(targetDir); os.IsNotExist(err) {
		if err := os.MkdirAll(targetDir, 0755); err != nil {
			return nil, fmt.Errorf("%w: create target directory: %v", images.ErrSetupFailed, err)
		}
		result.logf("created target directory: %s", targetDir)
	}
	if err := images.RequireDir(targetDir); err != nil {
		return nil, err
	}

	d.log.Info("download started", "count", len(urls), "dir", targetDir)

	for i, raw := range urls {
		if err := ctx.Err(); err != nil {
			result.logf("cancelled after %d of %d", i, len(urls))
			return result, err
		}

		item := d.fetchOne(ctx, i+1, raw, targetDir)
		result.Items = append(result.Items, item)

		if item.Status.IsSuccess() {
			result.Succeeded++
			result.logf("[%d/%d] downloaded: %s saved as: %s", item.Index, len(urls), item.URL, item.FileName)
		} else {
			result.Failed++
			result.logf("[%d/%d] failed: %s, reason: %s", item.Index, len(urls), item.URL, item.Reason)
		}
	}

	result.logf("download finished. succeeded: %d, failed: %d", result.Succeeded, result.Failed)
	d.log.Info("download complete", "dir", targetDir, "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

func (d *Downloader) fetchOne(ctx context.Context, index int, raw, targetDir string) Item {
	target := NormalizeURL(raw)
	item := Item{Index: index, URL: target}

	name, err := FileName(target, index, d.defaultExt)
	if err != nil {
		return failed(item, err)
	}

	body, err := d.fetcher.Fetch(ctx, target)
	if err != nil {
		d.log.Warn("fetch failed", "url", target, "error", err)
		return failed(item, err)
	}
	defer func() { _ = body.Close() }()

	if err := d.save(body, filepath.Join(targetDir, name)); err != nil {
		d.log.Warn("save failed", "url", target, "file", name, "error", err)
		return failed(item, err)
	}

	item.Status = StatusSuccess
	item.FileName = name
	return item
}

// save streams body into dst through a ".part" file so a failed transfer
// never leaves a truncated image under the final name.
func (d *Downloader) save(body io.Reader, dst string) error {
	tmp := dst + partSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	buf := make([]byte, d.chunkSize)
	if _, err := io.CopyBuffer(f, body, buf); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close file: %w", err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

func failed(item Item, err error) Item {
	item.Status = StatusFailure
	item.Reason = err.Error()
	return item
}

// NormalizeURL gives protocol-relative URLs ("//host/p.jpg") an https scheme.
func NormalizeURL(raw string) string {
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	return raw
}

// FileName returns "<index><ext>" where ext comes from the URL path
// (query and fragment ignored), or defaultExt when the path has none.
func FileName(rawURL string, index int, defaultExt string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	ext := images.Ext(path.Base(u.Path))
	if ext == "" || ext == "." {
		ext = defaultExt
	}
	return images.SequenceName(index, ext), nil
}
