package lpc

import "errors"

var (
	// ErrInvalidModelOrder is returned when the order is < 1 or not smaller
	// than the frame length.
	ErrInvalidModelOrder = errors.New("lpc: invalid model order")

	// ErrDegenerateModel is returned when the prediction error energy becomes
	// zero or negative, typically for silent or perfectly predictable frames.
	ErrDegenerateModel = errors.New("lpc: degenerate model")

	// ErrLengthMismatch is returned when a destination buffer has the wrong size.
	ErrLengthMismatch = errors.New("lpc: buffer length mismatch")
)
