package pitch

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Unison runs several phase vocoders whose ratios are spread evenly over
// [ratio-spread, ratio+spread] and mixes them with 1/N attenuation.
type Unison struct {
	sampleRate float64
	ratio      float64
	spread     float64
	voices     []*PhaseVocoder
}

// NewUnison creates a unison of n voices. opts configure every voice.
func NewUnison(sampleRate float64, n int, spread float64, opts ...Option) (*Unison, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVoices, n)
	}

	if spread < 0 || math.IsNaN(spread) || math.IsInf(spread, 0) {
		return nil, fmt.Errorf("pitch: unison spread must be >= 0 and finite: %g", spread)
	}

	u := &Unison{
		sampleRate: sampleRate,
		ratio:      defaultShiftRatio,
		spread:     spread,
		voices:     make([]*PhaseVocoder, n),
	}

	for i := range u.voices {
		pv, err := NewPhaseVocoder(sampleRate, opts...)
		if err != nil {
			return nil, err
		}

		u.voices[i] = pv
	}

	u.ratio = u.voices[0].PitchRatio()

	if err := u.retune(u.ratio); err != nil {
		return nil, err
	}

	return u, nil
}

// Voices returns the number of voices.
func (u *Unison) Voices() int { return len(u.voices) }

// Spread returns the ratio spread.
func (u *Unison) Spread() float64 { return u.spread }

// VoiceRatios returns the ratio of every voice in ascending order.
func (u *Unison) VoiceRatios() []float64 {
	out := make([]float64, len(u.voices))
	for i, v := range u.voices {
		out[i] = v.PitchRatio()
	}

	return out
}

// SampleRate returns the current sample rate in Hz.
func (u *Unison) SampleRate() float64 { return u.sampleRate }

// SetSampleRate updates the sample rate of every voice.
func (u *Unison) SetSampleRate(sampleRate float64) error {
	for _, v := range u.voices {
		if err := v.SetSampleRate(sampleRate); err != nil {
			return err
		}
	}

	u.sampleRate = sampleRate

	return nil
}

// PitchRatio returns the centre ratio.
func (u *Unison) PitchRatio() float64 { return u.ratio }

// PitchSemitones returns the centre shift in semitones.
func (u *Unison) PitchSemitones() float64 { return 12.0 * math.Log2(u.ratio) }

// SetPitchRatio sets the centre ratio. Every voice ratio must stay positive.
func (u *Unison) SetPitchRatio(ratio float64) error {
	if err := u.retune(ratio); err != nil {
		return err
	}

	u.ratio = ratio

	return nil
}

// SetPitchSemitones sets the centre shift in semitones.
func (u *Unison) SetPitchSemitones(semitones float64) error {
	if math.IsNaN(semitones) || math.IsInf(semitones, 0) {
		return fmt.Errorf("%w: %g semitones", ErrInvalidShiftRatio, semitones)
	}

	return u.SetPitchRatio(math.Pow(2, semitones/12.0))
}

// SetSpread changes the ratio spread.
func (u *Unison) SetSpread(spread float64) error {
	if spread < 0 || math.IsNaN(spread) || math.IsInf(spread, 0) {
		return fmt.Errorf("pitch: unison spread must be >= 0 and finite: %g", spread)
	}

	old := u.spread
	u.spread = spread

	if err := u.retune(u.ratio); err != nil {
		u.spread = old
		return err
	}

	return nil
}

func (u *Unison) retune(ratio float64) error {
	if !isFinitePositive(ratio) {
		return fmt.Errorf("%w: %g", ErrInvalidShiftRatio, ratio)
	}

	n := len(u.voices)
	ratios := make([]float64, n)

	for i := range ratios {
		offset := 0.0
		if n > 1 {
			offset = u.spread * (2*float64(i)/float64(n-1) - 1)
		}

		ratios[i] = ratio + offset
		if !isFinitePositive(ratios[i]) {
			return fmt.Errorf("%w: voice %d detuned to %g", ErrInvalidShiftRatio, i, ratios[i])
		}
	}

	for i, v := range u.voices {
		if err := v.SetPitchRatio(ratios[i]); err != nil {
			return err
		}
	}

	return nil
}

// Reset clears the phase state of every voice.
func (u *Unison) Reset() {
	for _, v := range u.voices {
		v.Reset()
	}
}

// Process returns the attenuated mix of all voices.
// If processing fails this returns a copy of input.
func (u *Unison) Process(input []float64) []float64 {
	if len(input) == 0 {
		return nil
	}

	out, err := u.ProcessWithError(input)
	if err != nil {
		return fitLength(input, len(input))
	}

	return out
}

// ProcessWithError returns the attenuated mix of all voices and reports
// errors.
func (u *Unison) ProcessWithError(input []float64) ([]float64, error) {
	if len(input) == 0 {
		return nil, nil
	}

	mix := make([]float64, len(input))

	for i, v := range u.voices {
		out, err := v.ProcessWithError(input)
		if err != nil {
			return nil, fmt.Errorf("pitch: unison voice %d: %w", i, err)
		}

		vecmath.AddBlockInPlace(mix, out)
	}

	vecmath.ScaleBlockInPlace(mix, 1/float64(len(u.voices)))

	return mix, nil
}

// ProcessInPlace replaces buf with the unison mix.
func (u *Unison) ProcessInPlace(buf []float64) {
	copy(buf, u.Process(buf))
}
