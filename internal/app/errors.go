package app

import "errors"

var (
	ErrEmptyMarkup = errors.New("markup is empty")
	ErrEmptyDir    = errors.New("directory is empty")
)
