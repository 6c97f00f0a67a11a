// Package images holds the filesystem helpers shared by the sequencer and merger:
// the qualifying-extension set, directory listing, numeric tokens and copying.
package images

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Extensions is the set of recognized image extensions (lowercase, with dot).
var Extensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".avif": true,
}

// File is a qualifying image found in a directory listing.
type File struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Ext     string    `json:"ext"` // original case, with dot
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// Ext returns the extension of name including the dot.
// A name whose only dot is the leading one (".jpg") has no extension.
func Ext(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return ""
	}
	return ext
}

// IsImageFile reports whether name carries a recognized image extension.
// The comparison is case-insensitive.
func IsImageFile(name string) bool {
	return Extensions[strings.ToLower(Ext(name))]
}

// RequireDir returns ErrNotADirectory unless path exists and is a directory.
func RequireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotADirectory, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, path)
	}
	return nil
}

// List returns the qualifying images directly inside dir (non-recursive),
// in the order the directory enumeration yields them.
// Symlinks are followed; entries that cannot be stat'ed are skipped.
func List(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var files []File
	for _, entry := range entries {
		name := entry.Name()
		if !IsImageFile(name) {
			continue
		}

		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		files = append(files, File{
			Name:    name,
			Path:    path,
			Ext:     Ext(name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	return files, nil
}

// SequenceName is the file name for position n of a sequence: "<n><ext>".
func SequenceName(n int, ext string) string {
	return strconv.Itoa(n) + ext
}

// digitRun matches the first contiguous run of decimal digits.
var digitRun = regexp.MustCompile(`[0-9]+`)

// NumericToken returns the value of the first run of decimal digits in name,
// or 0 when name contains no digits. Values too large for an int saturate.
func NumericToken(name string) int {
	match := digitRun.FindString(name)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return math.MaxInt
	}
	return n
}

// NormalizeName returns name in Unicode NFC form, so names read back from
// filesystems that store decomposed forms compare equal to composed ones.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}
