package pitch

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// ResampleMode selects how a PhaseVocoder restores the input duration.
type ResampleMode int

const (
	// ResampleLinear resamples every grain by linear interpolation through a
	// lookup table and overlap-adds at the analysis hop.
	ResampleLinear ResampleMode = iota
	// ResamplePolyphase time-stretches the block at the synthesis hop and
	// then converts it back with a band-limited polyphase resampler.
	ResamplePolyphase
)

// String returns the lowercase mode name.
func (m ResampleMode) String() string {
	switch m {
	case ResampleLinear:
		return "linear"
	case ResamplePolyphase:
		return "polyphase"
	default:
		return fmt.Sprintf("ResampleMode(%d)", int(m))
	}
}

// ParseResampleMode maps "linear" or "polyphase" to a ResampleMode.
func ParseResampleMode(s string) (ResampleMode, error) {
	switch s {
	case "linear", "":
		return ResampleLinear, nil
	case "polyphase":
		return ResamplePolyphase, nil
	}

	return ResampleLinear, fmt.Errorf("pitch: unknown resample mode %q", s)
}

// resamplePolyphase converts a mono block from inRate to outRate.
func resamplePolyphase(in []float64, inRate, outRate float64) ([]float64, error) {
	r, err := resampling.New(&resampling.Config{
		InputRate:  inRate,
		OutputRate: outRate,
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := r.Process(in)
	if err != nil {
		return nil, err
	}

	tail, err := r.Flush()
	if err != nil {
		return nil, err
	}

	return append(out, tail...), nil
}
