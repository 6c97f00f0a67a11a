package download

import "errors"

// Sentinel errors for the download package.
var (
	// ErrBadStatus is returned when the server answers with a non-2xx status.
	ErrBadStatus = errors.New("unexpected http status")

	// ErrInvalidURL is returned when an image URL cannot be parsed.
	ErrInvalidURL = errors.New("invalid image url")

	// ErrReadTimeout is returned when a response body stalls.
	ErrReadTimeout = errors.New("read timed out")
)
