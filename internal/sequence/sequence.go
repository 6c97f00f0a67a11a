package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/imgkit/internal/images"
)

// DefaultBackupPrefix names backup directories: image_backup_20060102_150405.
const DefaultBackupPrefix = "image_backup_"

const (
	backupTimeLayout = "20060102_150405"
	maxBackupSuffix  = 1000
	stagingPrefix    = ".imgkit-staging-"
)

// ErrNameConflict is returned before any change when a target name is held
// by an entry outside the run.
var ErrNameConflict = errors.New("sequence name held by another entry")

// Rename records one applied rename.
type Rename struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Failure records a file that was left untouched.
type Failure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Result of a sequencing run.
type Result struct {
	Dir       string    `json:"dir"`
	BackupDir string    `json:"backup_dir,omitempty"`
	Renamed   []Rename  `json:"renamed"`
	Failed    []Failure `json:"failed,omitempty"`
	Message   string    `json:"message,omitempty"`
	Log       []string  `json:"log"`
}

func (r *Result) logf(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}

func (r *Result) fail(name string, err error) {
	r.Failed = append(r.Failed, Failure{Name: name, Reason: err.Error()})
	r.logf("failed: %s, reason: %v", name, err)
}

// Config for the sequencer.
type Config struct {
	BackupPrefix string
	Now          func() time.Time // clock for backup directory names
}

// Sequencer renames images in place after backing them up.
type Sequencer struct {
	backupPrefix string
	now          func() time.Time
	log          *slog.Logger
}

// New creates a sequencer.
func New(cfg Config, log *slog.Logger) *Sequencer {
	if log == nil {
		log = slog.Default()
	}
	if cfg.BackupPrefix == "" {
		cfg.BackupPrefix = DefaultBackupPrefix
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Sequencer{
		backupPrefix: cfg.BackupPrefix,
		now:          cfg.Now,
		log:          log.With("component", "sequencer"),
	}
}

// staged is a plan entry that has been backed up and moved aside.
type staged struct {
	entry   Entry
	tmpPath string
}

// Run backs up every qualifying image in dir and renames them to a dense
// 1..N sequence ordered by modification time.
//
// Originals are first moved to staging names and only then to their final
// names, so a target like "2.jpg" is never claimed while another original
// still holds it. A directory without images is reported, not modified.
// Cancellation is honoured until the first rename; after that the run
// completes so no file is left under a staging name.
func (s *Sequencer) Run(ctx context.Context, dir string) (*Result, error) {
	plan, err := BuildPlan(dir)
	if err != nil {
		return nil, err
	}

	result := &Result{Dir: dir, Renamed: []Rename{}}
	result.logf("current directory: %s", dir)

	if len(plan.Entries) == 0 {
		result.Message = "no images found in directory"
		result.logf("%s", result.Message)
		return result, nil
	}
	result.logf("found %d images", len(plan.Entries))

	if len(plan.Conflicts) > 0 {
		for _, name := range plan.Conflicts {
			result.logf("name already taken by another entry: %s", name)
		}
		result.Message = "sequence names are taken, nothing was changed"
		result.logf("%s", result.Message)
		return result, fmt.Errorf("%w: %s", ErrNameConflict, strings.Join(plan.Conflicts, ", "))
	}

	backupDir, err := s.createBackupDir(dir)
	if err != nil {
		return result, fmt.Errorf("%w: create backup directory: %v", images.ErrSetupFailed, err)
	}
	result.BackupDir = backupDir
	result.logf("created backup directory: %s", backupDir)
	s.log.Info("sequence started", "dir", dir, "count", len(plan.Entries), "backup", backupDir)

	// Phase 1: back up every original.
	var backedUp []Entry
	for _, e := range plan.Entries {
		if err := ctx.Err(); err != nil {
			result.logf("cancelled before renaming, backups kept in: %s", backupDir)
			return result, err
		}
		if _, err := images.CopyFile(e.File.Path, filepath.Join(backupDir, e.File.Name)); err != nil {
			result.fail(e.File.Name, fmt.Errorf("backup: %w", err))
			continue
		}
		backedUp = append(backedUp, e)
	}

	// Phase 2: move backed-up originals to staging names.
	var moved []staged
	for i, e := range backedUp {
		tmp := filepath.Join(dir, stagingPrefix+strconv.Itoa(i+1)+e.File.Ext)
		if err := renameNoClobber(e.File.Path, tmp); err != nil {
			result.fail(e.File.Name, fmt.Errorf("stage: %w", err))
			continue
		}
		moved = append(moved, staged{entry: e, tmpPath: tmp})
	}

	// Phase 3: assign final names densely over the staged files.
	next := 1
	for _, st := range moved {
		name := st.entry.File.Name
		newName, err := s.finalize(dir, st, next)
		if err != nil {
			if rerr := os.Rename(st.tmpPath, st.entry.File.Path); rerr != nil {
				s.log.Error("restore failed", "file", name, "staging", st.tmpPath, "error", rerr)
				err = fmt.Errorf("%w (left as %s)", err, filepath.Base(st.tmpPath))
			}
			result.fail(name, err)
			continue
		}
		next++
		result.Renamed = append(result.Renamed, Rename{Old: name, New: newName})
		result.logf("renamed: %s -> %s", name, newName)
	}

	if len(result.Failed) == 0 {
		result.logf("all images renamed, originals backed up in: %s", backupDir)
	} else {
		result.logf("renamed %d images, %d failed, originals backed up in: %s",
			len(result.Renamed), len(result.Failed), backupDir)
	}
	s.log.Info("sequence complete", "dir", dir, "renamed", len(result.Renamed), "failed", len(result.Failed))
	return result, nil
}

// finalize moves a staged file to sequence number n. A name taken since
// the plan was built is an error; the caller restores the original.
func (s *Sequencer) finalize(dir string, st staged, n int) (string, error) {
	newName := images.SequenceName(n, st.entry.File.Ext)
	if err := renameNoClobber(st.tmpPath, filepath.Join(dir, newName)); err != nil {
		return "", err
	}
	return newName, nil
}

// createBackupDir makes a fresh prefix+timestamp directory inside dir,
// adding _1, _2... when a run in the same second already used the name.
func (s *Sequencer) createBackupDir(dir string) (string, error) {
	base := filepath.Join(dir, s.backupPrefix+s.now().Format(backupTimeLayout))
	path := base
	for i := 1; ; i++ {
		err := os.Mkdir(path, 0755)
		if err == nil {
			return path, nil
		}
		if !os.IsExist(err) || i > maxBackupSuffix {
			return "", err
		}
		path = base + "_" + strconv.Itoa(i)
	}
}

// renameNoClobber renames src to dst unless dst already exists.
func renameNoClobber(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return images.ErrDestinationExists
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.Rename(src, dst)
}
