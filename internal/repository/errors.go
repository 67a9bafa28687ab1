package repository

import "errors"

var (
	// ErrImageNotFound indicates the image record was not found
	ErrImageNotFound = errors.New("image not found")

	// ErrDuplicateFilename indicates a filename collision that could not be resolved
	ErrDuplicateFilename = errors.New("duplicate filename")
)
