package pitch

// PitchProcessor defines the shared API for interchangeable pitch shifters.
//
// Implementations include [PhaseVocoder] and [Unison].
//
//nolint:revive
type PitchProcessor interface {
	SampleRate() float64
	SetSampleRate(sampleRate float64) error

	PitchRatio() float64
	PitchSemitones() float64
	SetPitchRatio(ratio float64) error
	SetPitchSemitones(semitones float64) error

	Reset()
	Process(input []float64) []float64
	ProcessInPlace(buf []float64)
}

var (
	_ PitchProcessor = (*PhaseVocoder)(nil)
	_ PitchProcessor = (*Unison)(nil)
)
