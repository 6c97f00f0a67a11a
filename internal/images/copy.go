package images

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFile copies src to dst together with its permission bits and
// modification time. Returns ErrDestinationExists if dst already exists.
func CopyFile(src, dst string) (int64, error) {
	if _, err := os.Lstat(dst); err == nil {
		return 0, ErrDestinationExists
	}
	return copyFile(src, dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
}

// ReplaceFile is CopyFile without the existence check: an existing dst is
// truncated and overwritten.
func ReplaceFile(src, dst string) (int64, error) {
	return copyFile(src, dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
}

func copyFile(src, dst string, flag int) (int64, error) {
	// Create destination directory
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, fmt.Errorf("%w: create directory: %v", ErrCopyFailed, err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("%w: open source: %v", ErrCopyFailed, err)
	}
	defer func() { _ = srcFile.Close() }()

	info, err := srcFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: stat source: %v", ErrCopyFailed, err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s is not a regular file", ErrCopyFailed, src)
	}

	dstFile, err := os.OpenFile(dst, flag, info.Mode().Perm())
	if err != nil {
		if os.IsExist(err) {
			return 0, ErrDestinationExists
		}
		return 0, fmt.Errorf("%w: create destination: %v", ErrCopyFailed, err)
	}
	defer func() { _ = dstFile.Close() }()

	size, err := io.Copy(dstFile, srcFile)
	if err != nil {
		// Clean up partial file on error
		_ = dstFile.Close()
		_ = os.Remove(dst)
		return 0, fmt.Errorf("%w: copy content: %v", ErrCopyFailed, err)
	}

	if err := dstFile.Sync(); err != nil {
		return 0, fmt.Errorf("%w: sync: %v", ErrCopyFailed, err)
	}
	if err := dstFile.Close(); err != nil {
		return 0, fmt.Errorf("%w: close: %v", ErrCopyFailed, err)
	}

	// Metadata: mode may be masked by umask on create, times are carried over.
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return size, fmt.Errorf("%w: chmod: %v", ErrCopyFailed, err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return size, fmt.Errorf("%w: chtimes: %v", ErrCopyFailed, err)
	}

	return size, nil
}
