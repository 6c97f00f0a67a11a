package download

// Status is the outcome of a single URL in a download batch.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// IsSuccess reports whether the item was written to disk.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
