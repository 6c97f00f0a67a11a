package images

import "errors"

var (
	// ErrNotADirectory indicates the given path is missing or is not a directory.
	ErrNotADirectory = errors.New("not a directory")

	// ErrCopyFailed indicates the file copy operation failed.
	ErrCopyFailed = errors.New("failed to copy file")

	// ErrDestinationExists indicates the destination file already exists.
	ErrDestinationExists = errors.New("destination file already exists")

	// ErrSetupFailed indicates a shared working directory (backup, collection,
	// download target) could not be created. Operations abort on it.
	ErrSetupFailed = errors.New("setup failed")
)
