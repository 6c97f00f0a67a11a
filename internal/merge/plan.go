// Package merge copies the images of every subfolder into one collection
// folder under a single global sequence.
package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vmunix/imgkit/internal/images"
)

// DefaultCollectionName is the folder created under the root to hold merged images.
const DefaultCollectionName = "合集"

// Entry maps a source image to its position in the collection.
type Entry struct {
	Seq     int         `json:"seq"`
	File    images.File `json:"file"`
	NewName string      `json:"new_name"`
}

// Folder is one source subfolder in merge order.
type Folder struct {
	Name    string  `json:"name"`
	Path    string  `json:"path"`
	Entries []Entry `json:"entries"`
	Err     string  `json:"error,omitempty"` // listing failed
}

// Plan is the intended merge, computed without touching the filesystem.
type Plan struct {
	Root          string   `json:"root"`
	CollectionDir string   `json:"collection_dir"`
	Folders       []Folder `json:"folders"`
	Total         int      `json:"total"`
}

// BuildPlan orders the visible subfolders of root by name and, inside each,
// the qualifying images by their embedded number, then numbers all images
// with one counter starting at 1. The collection folder itself is excluded.
func BuildPlan(root, collectionName string) (*Plan, error) {
	if err := images.RequireDir(root); err != nil {
		return nil, err
	}
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	folders, err := subfolders(root, collectionName)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Root:          root,
		CollectionDir: filepath.Join(root, collectionName),
		Folders:       folders,
	}

	seq := 1
	for i := range plan.Folders {
		f := &plan.Folders[i]
		files, err := images.List(f.Path)
		if err != nil {
			f.Err = err.Error()
			continue
		}
		sortByNumericToken(files)
		for _, file := range files {
			f.Entries = append(f.Entries, Entry{
				Seq:     seq,
				File:    file,
				NewName: images.SequenceName(seq, file.Ext),
			})
			seq++
		}
	}
	plan.Total = seq - 1
	return plan, nil
}

// subfolders returns the direct, non-hidden subdirectories of root other
// than the collection folder, sorted by name.
func subfolders(root, collectionName string) ([]Folder, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read root: %w", err)
	}

	collection := images.NormalizeName(collectionName)
	var folders []Folder
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || images.NormalizeName(name) == collection {
			continue
		}
		path := filepath.Join(root, name)
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		folders = append(folders, Folder{Name: name, Path: path})
	}

	sort.SliceStable(folders, func(i, j int) bool {
		return images.NormalizeName(folders[i].Name) < images.NormalizeName(folders[j].Name)
	})
	return folders, nil
}

func sortByNumericToken(files []images.File) {
	sort.SliceStable(files, func(i, j int) bool {
		return images.NumericToken(files[i].Name) < images.NumericToken(files[j].Name)
	})
}
