package repository

import "errors"

var (
	// ErrInvalidImageURL indicates an invalid image URL
	ErrInvalidImageURL = errors.New("invalid image URL")

	// ErrResultNotFound indicates the compression result was not found
	ErrResultNotFound = errors.New("compression result not found")
)
