package spectrum

import "errors"

var (
	// ErrInvalidSize is returned for transform sizes that are not even and >= 2.
	ErrInvalidSize = errors.New("spectrum: transform size must be even and >= 2")

	// ErrLengthMismatch is returned when a buffer does not match the transform size.
	ErrLengthMismatch = errors.New("spectrum: buffer length mismatch")
)
