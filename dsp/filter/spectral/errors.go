package spectral

import "errors"

var (
	// ErrLengthMismatch is returned when a buffer does not match the filter size.
	ErrLengthMismatch = errors.New("spectral: buffer length mismatch")

	// ErrInvalidCoefficients is returned for empty coefficient vectors or
	// vectors longer than the frame.
	ErrInvalidCoefficients = errors.New("spectral: invalid coefficient vector")
)
