package merge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmunix/imgkit/internal/images"
)

// Copy records one image copied into the collection.
type Copy struct {
	Folder string `json:"folder"`
	Source string `json:"source"`
	New    string `json:"new"`
}

// Failure records an image or folder that was skipped.
type Failure struct {
	Folder string `json:"folder"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// Result of a merge run.
type Result struct {
	Root          string    `json:"root"`
	CollectionDir string    `json:"collection_dir"`
	TotalMerged   int       `json:"total_merged"`
	Copied        []Copy    `json:"copied"`
	Failed        []Failure `json:"failed,omitempty"`
	Message       string    `json:"message,omitempty"`
	Log           []string  `json:"log"`
}

func (r *Result) logf(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}

// Config for the merger.
type Config struct {
	CollectionName string
}

// Merger copies subfolder images into the collection folder.
type Merger struct {
	collectionName string
	log            *slog.Logger
}

// New creates a merger.
func New(cfg Config, log *slog.Logger) *Merger {
	if log == nil {
		log = slog.Default()
	}
	if cfg.CollectionName == "" {
		cfg.CollectionName = DefaultCollectionName
	}
	return &Merger{
		collectionName: cfg.CollectionName,
		log:            log.With("component", "merger"),
	}
}

// Run merges the images below root into root/<collection>. Source folders
// are only read. Files already in the collection under a target name are
// overwritten. The global counter advances only on a successful copy, so
// the collection stays dense even when some copies fail.
func (m *Merger) Run(ctx context.Context, root string) (*Result, error) {
	plan, err := BuildPlan(root, m.collectionName)
	if err != nil {
		return nil, err
	}

	result := &Result{Root: root, CollectionDir: plan.CollectionDir, Copied: []Copy{}}
	result.logf("current root: %s", root)

	if err := os.MkdirAll(plan.CollectionDir, 0755); err != nil {
		return result, fmt.Errorf("%w: create collection directory: %v", images.ErrSetupFailed, err)
	}
	result.logf("collection directory: %s", plan.CollectionDir)

	if len(plan.Folders) == 0 {
		result.Message = "no subfolders found"
		result.logf("%s", result.Message)
		return result, nil
	}
	result.logf("found %d subfolders", len(plan.Folders))
	m.log.Info("merge started", "root", root, "folders", len(plan.Folders))

	counter := 1
	for _, folder := range plan.Folders {
		result.logf("processing folder: %s", folder.Name)

		if folder.Err != "" {
			result.Failed = append(result.Failed, Failure{Folder: folder.Name, Reason: folder.Err})
			result.logf("failed to read folder %s: %s", folder.Name, folder.Err)
			continue
		}
		if len(folder.Entries) == 0 {
			result.logf("no images in folder %s", folder.Name)
			continue
		}
		result.logf("found %d images", len(folder.Entries))

		for _, e := range folder.Entries {
			if err := ctx.Err(); err != nil {
				result.TotalMerged = counter - 1
				result.logf("cancelled after %d images", result.TotalMerged)
				return result, err
			}

			newName := images.SequenceName(counter, e.File.Ext)
			if _, err := images.ReplaceFile(e.File.Path, filepath.Join(plan.CollectionDir, newName)); err != nil {
				m.log.Warn("copy failed", "folder", folder.Name, "file", e.File.Name, "error", err)
				result.Failed = append(result.Failed, Failure{Folder: folder.Name, Name: e.File.Name, Reason: err.Error()})
				result.logf("failed: %s, reason: %v", e.File.Name, err)
				continue
			}

			result.Copied = append(result.Copied, Copy{Folder: folder.Name, Source: e.File.Name, New: newName})
			result.logf("copied: %s -> %s", e.File.Name, newName)
			counter++
		}
	}

	result.TotalMerged = counter - 1
	result.logf("merged %d images into: %s", result.TotalMerged, plan.CollectionDir)
	m.log.Info("merge complete", "root", root, "merged", result.TotalMerged, "failed", len(result.Failed))
	return result, nil
}
