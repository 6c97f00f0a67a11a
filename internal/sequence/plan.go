// Package sequence renames the images in a directory to 1..N by modification time.
package sequence

import (
	"fmt"
	"os"
	"sort"

	"github.com/vmunix/imgkit/internal/images"
)

// Entry maps one original image to its sequence number.
type Entry struct {
	Index   int         `json:"index"`
	File    images.File `json:"file"`
	NewName string      `json:"new_name"`
}

// Plan is the intended rename of a directory, computed before any mutation.
type Plan struct {
	Dir     string  `json:"dir"`
	Entries []Entry `json:"entries"`
	// Conflicts lists target names already held by an entry that is not
	// part of the run, such as a directory called "2.jpg".
	Conflicts []string `json:"conflicts,omitempty"`
}

// BuildPlan lists the qualifying images directly in dir, orders them by
// modification time (oldest first, ties in enumeration order) and assigns
// the names 1<ext>..N<ext>. It returns images.ErrNotADirectory for
// anything but an existing directory.
func BuildPlan(dir string) (*Plan, error) {
	if err := images.RequireDir(dir); err != nil {
		return nil, err
	}

	files, err := images.List(dir)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})

	plan := &Plan{Dir: dir, Entries: make([]Entry, 0, len(files))}
	for i, f := range files {
		plan.Entries = append(plan.Entries, Entry{
			Index:   i + 1,
			File:    f,
			NewName: images.SequenceName(i+1, f.Ext),
		})
	}

	held, err := foreignNames(dir, files)
	if err != nil {
		return nil, err
	}
	for _, e := range plan.Entries {
		if held[e.NewName] {
			plan.Conflicts = append(plan.Conflicts, e.NewName)
		}
	}
	return plan, nil
}

// foreignNames returns the names in dir that do not belong to files.
func foreignNames(dir string, files []images.File) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	own := make(map[string]bool, len(files))
	for _, f := range files {
		own[f.Name] = true
	}
	held := make(map[string]bool)
	for _, e := range entries {
		if !own[e.Name()] {
			held[e.Name()] = true
		}
	}
	return held, nil
}
