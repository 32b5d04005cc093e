package frame

import "errors"

var (
	// ErrInvalidSize is returned for window sizes < 2.
	ErrInvalidSize = errors.New("frame: window size must be >= 2")

	// ErrInvalidHop is returned for hops outside [1, size].
	ErrInvalidHop = errors.New("frame: hop must be in [1, size]")

	// ErrInvalidOverlap is returned for overlap ratios outside [0, 1).
	ErrInvalidOverlap = errors.New("frame: overlap ratio must be in [0, 1)")
)
