// Package app runs the download, sequence and merge operations with
// validation, directory memory, per-directory locking and run history.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vmunix/imgkit/internal/dirlock"
	"github.com/vmunix/imgkit/internal/dirmem"
	"github.com/vmunix/imgkit/internal/download"
	"github.com/vmunix/imgkit/internal/extract"
	"github.com/vmunix/imgkit/internal/history"
	"github.com/vmunix/imgkit/internal/images"
	"github.com/vmunix/imgkit/internal/merge"
	"github.com/vmunix/imgkit/internal/sequence"
)

// App coordinates the three operations.
type App struct {
	downloader     *download.Downloader
	sequencer      *sequence.Sequencer
	merger         *merge.Merger
	collectionName string
	dirs           dirmem.Store
	locks          *dirlock.Locker
	history        *history.Store // nil if disabled
	now            func() time.Time
	log            *slog.Logger
}

// Options for New. Only Fetcher is required.
type Options struct {
	Fetcher  download.Fetcher
	Download download.Config
	Sequence sequence.Config
	Merge    merge.Config
	Dirs     dirmem.Store    // nil keeps directories in memory only
	Locks    *dirlock.Locker // nil creates a private locker
	History  *history.Store  // nil disables run history
	Now      func() time.Time
}

// New creates an App.
func New(opts Options, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	if opts.Dirs == nil {
		opts.Dirs = dirmem.NewMemoryStore()
	}
	if opts.Locks == nil {
		opts.Locks = dirlock.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Merge.CollectionName == "" {
		opts.Merge.CollectionName = merge.DefaultCollectionName
	}
	if opts.Sequence.Now == nil {
		opts.Sequence.Now = opts.Now
	}

	return &App{
		downloader:     download.New(opts.Fetcher, opts.Download, log),
		sequencer:      sequence.New(opts.Sequence, log),
		merger:         merge.New(opts.Merge, log),
		collectionName: opts.Merge.CollectionName,
		dirs:           opts.Dirs,
		locks:          opts.Locks,
		history:        opts.History,
		now:            opts.Now,
		log:            log.With("component", "app"),
	}
}

// DownloadRequest is the input of Download.
type DownloadRequest struct {
	Markup   string
	Dir      string
	Remember bool // store Dir under save_dir
}

// DirRequest is the input of Sequence and Merge.
type DirRequest struct {
	Dir      string
	Remember bool
}

// Download extracts the image URLs from the markup and saves them to Dir
// as 1<ext>..N<ext>.
func (a *App) Download(ctx context.Context, req DownloadRequest) (*download.Result, error) {
	markup := strings.TrimSpace(req.Markup)
	if markup == "" {
		return nil, ErrEmptyMarkup
	}
	dir := strings.TrimSpace(req.Dir)
	if dir == "" {
		return nil, ErrEmptyDir
	}
	if req.Remember {
		a.remember(dirmem.KeySaveDir, dir)
	}

	unlock, err := a.locks.Lock(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	started := a.now()
	urls := extract.ImageURLs(markup)
	header := []string{
		fmt.Sprintf("received markup, length: %d", utf8.RuneCountInString(markup)),
		fmt.Sprintf("found %d image URLs", len(urls)),
	}

	result, err := a.downloader.Run(ctx, urls, dir)
	run := &history.Run{Operation: history.OpDownload, Target: dir, Log: header}
	if result != nil {
		result.Log = append(header, result.Log...)
		run.Succeeded, run.Failed, run.Log = result.Succeeded, result.Failed, result.Log
	}
	a.record(run, started, err)
	return result, err
}

// Sequence backs up the images in Dir and renames them to 1..N.
func (a *App) Sequence(ctx context.Context, req DirRequest) (*sequence.Result, error) {
	dir, err := a.checkDir(req.Dir)
	if err != nil {
		return nil, err
	}
	if req.Remember {
		a.remember(dirmem.KeyRenameDir, dir)
	}

	unlock, err := a.locks.Lock(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	started := a.now()
	result, err := a.sequencer.Run(ctx, dir)
	run := &history.Run{Operation: history.OpSequence, Target: dir}
	if result != nil {
		run.Succeeded, run.Failed, run.Log = len(result.Renamed), len(result.Failed), result.Log
	}
	a.record(run, started, err)
	return result, err
}

// Merge copies the images of every subfolder of Dir into the collection folder.
func (a *App) Merge(ctx context.Context, req DirRequest) (*merge.Result, error) {
	root, err := a.checkDir(req.Dir)
	if err != nil {
		return nil, err
	}
	if req.Remember {
		a.remember(dirmem.KeyMergeDir, root)
	}

	unlock, err := a.locks.Lock(ctx, root)
	if err != nil {
		return nil, err
	}
	defer unlock()

	started := a.now()
	result, err := a.merger.Run(ctx, root)
	run := &history.Run{Operation: history.OpMerge, Target: root}
	if result != nil {
		run.Succeeded, run.Failed, run.Log = result.TotalMerged, len(result.Failed), result.Log
	}
	a.record(run, started, err)
	return result, err
}

// PlanSequence returns the renames Sequence would perform without touching
// the filesystem.
func (a *App) PlanSequence(dir string) (*sequence.Plan, error) {
	dir, err := a.checkDir(dir)
	if err != nil {
		return nil, err
	}
	return sequence.BuildPlan(dir)
}

// PlanMerge returns the copies Merge would perform without touching the
// filesystem.
func (a *App) PlanMerge(root string) (*merge.Plan, error) {
	root, err := a.checkDir(root)
	if err != nil {
		return nil, err
	}
	return merge.BuildPlan(root, a.collectionName)
}

// RememberedDir returns the directory stored under key.
func (a *App) RememberedDir(key string) (string, bool) {
	return a.dirs.Get(key)
}

// RememberedDirs returns every remembered directory by key.
func (a *App) RememberedDirs() map[string]string {
	return a.dirs.All()
}

func (a *App) checkDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", ErrEmptyDir
	}
	if err := images.RequireDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// remember is best effort: a failure to persist never blocks the operation.
func (a *App) remember(key, dir string) {
	if err := a.dirs.Set(key, dir); err != nil {
		a.log.Warn("failed to remember directory", "key", key, "dir", dir, "error", err)
	}
}

func (a *App) record(run *history.Run, started time.Time, opErr error) {
	if a.history == nil {
		return
	}
	run.StartedAt = started
	run.FinishedAt = a.now()
	if opErr != nil {
		run.Error = opErr.Error()
	}
	if err := a.history.Add(run); err != nil {
		a.log.Warn("failed to record run", "operation", run.Operation, "target", run.Target, "error", err)
	}
}
