package vocoder

import (
	"errors"

	"github.com/cwbudde/algo-lpcvoc/dsp/frame"
	"github.com/cwbudde/algo-lpcvoc/dsp/lpc"
	"github.com/cwbudde/algo-lpcvoc/dsp/spectrum"
)

var (
	// ErrInvalidSize is returned for odd window sizes or sizes below 4.
	ErrInvalidSize = spectrum.ErrInvalidSize

	// ErrInvalidModelOrder is returned for orders outside [1, windowSize/2].
	ErrInvalidModelOrder = lpc.ErrInvalidModelOrder

	// ErrInvalidOverlap is returned for overlap ratios outside [0, 1).
	ErrInvalidOverlap = frame.ErrInvalidOverlap

	// ErrInvalidSampleRate is returned for non-positive or non-finite rates.
	ErrInvalidSampleRate = errors.New("vocoder: sample rate must be positive and finite")

	// ErrLengthMismatch is returned when block inputs differ in length.
	ErrLengthMismatch = errors.New("vocoder: buffer length mismatch")

	// ErrNonFinite is reported when a synthesized frame contains NaN or Inf.
	ErrNonFinite = errors.New("vocoder: frame produced non-finite samples")
)
