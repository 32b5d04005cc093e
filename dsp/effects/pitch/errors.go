package pitch

import (
	"errors"

	"github.com/cwbudde/algo-lpcvoc/dsp/spectrum"
)

var (
	// ErrInvalidShiftRatio is returned for non-positive or non-finite ratios.
	ErrInvalidShiftRatio = errors.New("pitch: shift ratio must be positive and finite")

	// ErrInvalidSize is returned for odd or too small frame sizes.
	ErrInvalidSize = spectrum.ErrInvalidSize

	// ErrInvalidHop is returned for synthesis hops outside [1, frameSize).
	ErrInvalidHop = errors.New("pitch: invalid synthesis hop")

	// ErrInvalidSampleRate is returned for non-positive or non-finite rates.
	ErrInvalidSampleRate = errors.New("pitch: sample rate must be positive and finite")

	// ErrInvalidVoices is returned for unison configurations without voices.
	ErrInvalidVoices = errors.New("pitch: unison needs at least one voice")
)
