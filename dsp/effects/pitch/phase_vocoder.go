//nolint:funcorder
package pitch

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-lpcvoc/dsp/spectrum"
	"github.com/cwbudde/algo-lpcvoc/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultShiftRatio = 1.0
	defaultFrameSize  = 1024
	minFrameSize      = 4
	normFloor         = 1e-12
)

// Option configures a PhaseVocoder at construction.
type Option func(*PhaseVocoder) error

// WithFrameSize sets the grain length. size must be even; the synthesis
// hop becomes size/4 unless set explicitly afterwards.
func WithFrameSize(size int) Option {
	return func(p *PhaseVocoder) error {
		if size < minFrameSize || size%2 != 0 {
			return fmt.Errorf("%w: frame size %d", ErrInvalidSize, size)
		}

		p.frameSize = size
		p.synthesisHop = size / 4

		return nil
	}
}

// WithSynthesisHop sets the synthesis hop in samples.
func WithSynthesisHop(hop int) Option {
	return func(p *PhaseVocoder) error {
		p.synthesisHop = hop
		return nil
	}
}

// WithShiftRatio sets the initial pitch ratio.
func WithShiftRatio(ratio float64) Option {
	return func(p *PhaseVocoder) error {
		if !isFinitePositive(ratio) {
			return fmt.Errorf("%w: %g", ErrInvalidShiftRatio, ratio)
		}

		p.ratio = ratio

		return nil
	}
}

// WithWindow sets the analysis and synthesis window.
func WithWindow(t window.Type) Option {
	return func(p *PhaseVocoder) error {
		p.windowType = t
		return nil
	}
}

// WithResampleMode selects how grains are brought back to the input
// duration.
func WithResampleMode(m ResampleMode) Option {
	return func(p *PhaseVocoder) error {
		if m != ResampleLinear && m != ResamplePolyphase {
			return fmt.Errorf("pitch: unknown resample mode: %d", int(m))
		}

		p.mode = m

		return nil
	}
}

// PhaseVocoder shifts pitch by a ratio while preserving duration.
//
// Grains of frameSize samples are taken every analysisHop samples, where
// analysisHop = round(synthesisHop/ratio). Their phases are advanced as if
// the grains were spaced synthesisHop apart, each resynthesized grain is
// resampled by analysisHop/synthesisHop, and the grains are overlap-added at
// the analysis spacing. The realized ratio is synthesisHop/analysisHop.
//
// This processor is mono, block oriented, and not thread-safe.
type PhaseVocoder struct {
	sampleRate   float64
	ratio        float64
	frameSize    int
	synthesisHop int
	analysisHop  int

	windowType window.Type
	mode       ResampleMode

	fft *spectrum.RealFFT

	windowCoeffs []float64
	omega        []float64
	prevPhi      []float64
	psi          []float64

	grain []float64
	synth []float64
	spec  []complex128

	// Grain resampling tables for the current hop pair.
	lookup    []float64
	lookupWin []float64
	lookupHa  int
}

// NewPhaseVocoder creates a phase vocoder with a 1024-sample Hann grain,
// a synthesis hop of 256 and unity ratio unless overridden by opts.
func NewPhaseVocoder(sampleRate float64, opts ...Option) (*PhaseVocoder, error) {
	if !isFinitePositive(sampleRate) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidSampleRate, sampleRate)
	}

	p := &PhaseVocoder{
		sampleRate:   sampleRate,
		ratio:        defaultShiftRatio,
		frameSize:    defaultFrameSize,
		synthesisHop: defaultFrameSize / 4,
		windowType:   window.TypeHann,
		mode:         ResampleLinear,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(p); err != nil {
			return nil, err
		}
	}

	p.updateAnalysisHop()

	if err := p.rebuildState(); err != nil {
		return nil, err
	}

	return p, nil
}

// SampleRate returns the current sample rate in Hz.
func (p *PhaseVocoder) SampleRate() float64 { return p.sampleRate }

// PitchRatio returns the requested pitch ratio.
func (p *PhaseVocoder) PitchRatio() float64 { return p.ratio }

// PitchSemitones returns the requested pitch shift in semitones.
func (p *PhaseVocoder) PitchSemitones() float64 { return 12.0 * math.Log2(p.ratio) }

// EffectivePitchRatio returns the realized ratio synthesisHop/analysisHop.
func (p *PhaseVocoder) EffectivePitchRatio() float64 {
	return float64(p.synthesisHop) / float64(p.analysisHop)
}

// FrameSize returns the grain length.
func (p *PhaseVocoder) FrameSize() int { return p.frameSize }

// SynthesisHop returns the synthesis hop in samples.
func (p *PhaseVocoder) SynthesisHop() int { return p.synthesisHop }

// AnalysisHop returns the analysis hop in samples.
func (p *PhaseVocoder) AnalysisHop() int { return p.analysisHop }

// ResampleMode returns the duration-correction mode.
func (p *PhaseVocoder) ResampleMode() ResampleMode { return p.mode }

// SetSampleRate updates sample rate metadata.
func (p *PhaseVocoder) SetSampleRate(sampleRate float64) error {
	if !isFinitePositive(sampleRate) {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRate, sampleRate)
	}

	p.sampleRate = sampleRate

	return nil
}

// SetPitchRatio updates the shift ratio. Phase state is kept.
func (p *PhaseVocoder) SetPitchRatio(ratio float64) error {
	if !isFinitePositive(ratio) {
		return fmt.Errorf("%w: %g", ErrInvalidShiftRatio, ratio)
	}

	p.ratio = ratio
	p.updateAnalysisHop()

	return nil
}

// SetPitchSemitones updates the shift in semitones.
func (p *PhaseVocoder) SetPitchSemitones(semitones float64) error {
	if math.IsNaN(semitones) || math.IsInf(semitones, 0) {
		return fmt.Errorf("%w: %g semitones", ErrInvalidShiftRatio, semitones)
	}

	return p.SetPitchRatio(math.Pow(2, semitones/12.0))
}

// SetFrameSize changes the grain length and resets the synthesis hop to
// size/4. Phase state is cleared.
func (p *PhaseVocoder) SetFrameSize(size int) error {
	if size < minFrameSize || size%2 != 0 {
		return fmt.Errorf("%w: frame size %d", ErrInvalidSize, size)
	}

	p.frameSize = size
	p.synthesisHop = size / 4
	p.updateAnalysisHop()

	return p.rebuildState()
}

// SetSynthesisHop changes the synthesis hop.
func (p *PhaseVocoder) SetSynthesisHop(hop int) error {
	if hop < 1 || hop >= p.frameSize {
		return fmt.Errorf("%w: %d for frame size %d", ErrInvalidHop, hop, p.frameSize)
	}

	p.synthesisHop = hop
	p.updateAnalysisHop()

	return nil
}

// SetResampleMode changes the duration-correction mode.
func (p *PhaseVocoder) SetResampleMode(m ResampleMode) error {
	return WithResampleMode(m)(p)
}

// Reset zeroes the phase accumulators.
func (p *PhaseVocoder) Reset() {
	clear(p.prevPhi)
	clear(p.psi)
}

// Process shifts input and returns a slice of the same length.
// If processing fails this returns a copy of input.
func (p *PhaseVocoder) Process(input []float64) []float64 {
	if len(input) == 0 {
		return nil
	}

	out, err := p.ProcessWithError(input)
	if err != nil {
		return fitLength(input, len(input))
	}

	return out
}

// ProcessInPlace shifts buf in place.
func (p *PhaseVocoder) ProcessInPlace(buf []float64) {
	copy(buf, p.Process(buf))
}

// ProcessInPlaceWithError shifts buf in place and reports errors.
func (p *PhaseVocoder) ProcessInPlaceWithError(buf []float64) error {
	out, err := p.ProcessWithError(buf)
	if err != nil {
		return err
	}

	copy(buf, out)

	return nil
}

// ProcessWithError shifts input and reports errors. The output length
// always equals the input length.
func (p *PhaseVocoder) ProcessWithError(input []float64) ([]float64, error) {
	if len(input) == 0 {
		return nil, nil
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	if p.mode == ResamplePolyphase {
		return p.processStretch(input)
	}

	return p.processGrains(input)
}

// processGrains resamples every grain and overlap-adds at the analysis hop.
func (p *PhaseVocoder) processGrains(input []float64) ([]float64, error) {
	ha := p.analysisHop
	lx := p.prepareLookup()

	frameCount := 1 + (len(input)-1)/ha
	outLen := (frameCount-1)*ha + max(lx, p.frameSize)
	output := make([]float64, outLen)
	norm := make([]float64, outLen)

	for frame := range frameCount {
		pos := frame * ha

		if err := p.resynthesize(input, pos); err != nil {
			return nil, err
		}

		for i := range lx {
			output[pos+i] += interpolate(p.synth, p.lookup[i])
			norm[pos+i] += p.lookupWin[i]
		}
	}

	normalize(output, norm)

	return fitLength(output, len(input)), nil
}

// processStretch overlap-adds at the synthesis hop and corrects the
// duration of the whole stretched block with a polyphase resampler.
func (p *PhaseVocoder) processStretch(input []float64) ([]float64, error) {
	ha, hs := p.analysisHop, p.synthesisHop

	frameCount := 1 + (len(input)-1)/ha
	stretchedLen := (frameCount-1)*hs + p.frameSize
	stretched := make([]float64, stretchedLen)
	norm := make([]float64, stretchedLen)

	for frame := range frameCount {
		if err := p.resynthesize(input, frame*ha); err != nil {
			return nil, err
		}

		outPos := frame * hs
		for i, v := range p.synth {
			w := p.windowCoeffs[i]
			stretched[outPos+i] += v
			norm[outPos+i] += w * w
		}
	}

	normalize(stretched, norm)

	if ha == hs {
		return fitLength(stretched, len(input)), nil
	}

	shifted, err := resamplePolyphase(stretched, p.sampleRate*float64(hs)/float64(ha), p.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("pitch: duration correction failed: %w", err)
	}

	return fitLength(shifted, len(input)), nil
}

// resynthesize analyzes the grain starting at pos, advances the phase
// accumulators and leaves the windowed synthesis grain in p.synth.
func (p *PhaseVocoder) resynthesize(input []float64, pos int) error {
	for i := range p.grain {
		x := 0.0
		if idx := pos + i; idx < len(input) {
			x = input[idx]
		}

		p.grain[i] = x
	}

	vecmath.MulBlockInPlace(p.grain, p.windowCoeffs)

	if err := p.fft.Forward(p.spec, p.grain); err != nil {
		return fmt.Errorf("pitch: forward FFT failed: %w", err)
	}

	ha := float64(p.analysisHop)
	stretch := float64(p.synthesisHop) / ha

	for k, c := range p.spec {
		mag := binMagnitude(c)
		phi := cmplx.Phase(c)

		expected := p.omega[k] * ha
		delta := spectrum.WrapPhase(phi - p.prevPhi[k] - expected)

		p.psi[k] = spectrum.WrapPhase(p.psi[k] + (expected+delta)*stretch)
		p.prevPhi[k] = phi
		p.spec[k] = cmplx.Rect(mag, p.psi[k])
	}

	if err := p.fft.Inverse(p.synth, p.spec); err != nil {
		return fmt.Errorf("pitch: inverse FFT failed: %w", err)
	}

	vecmath.MulBlockInPlace(p.synth, p.windowCoeffs)

	return nil
}

// prepareLookup builds x[i] = i*frameSize/lx for lx = floor(frameSize *
// analysisHop / synthesisHop) and the matching resampled squared window.
func (p *PhaseVocoder) prepareLookup() int {
	lx := max(1, p.frameSize*p.analysisHop/p.synthesisHop)

	if p.lookupHa == p.analysisHop && len(p.lookup) == lx {
		return lx
	}

	if cap(p.lookup) < lx {
		p.lookup = make([]float64, lx)
		p.lookupWin = make([]float64, lx)
	}

	p.lookup = p.lookup[:lx]
	p.lookupWin = p.lookupWin[:lx]

	step := float64(p.frameSize) / float64(lx)
	for i := range lx {
		x := float64(i) * step
		p.lookup[i] = x

		w := interpolate(p.windowCoeffs, x)
		p.lookupWin[i] = w * w
	}

	p.lookupHa = p.analysisHop

	return lx
}

func (p *PhaseVocoder) validate() error {
	if !isFinitePositive(p.sampleRate) {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRate, p.sampleRate)
	}

	if !isFinitePositive(p.ratio) {
		return fmt.Errorf("%w: %g", ErrInvalidShiftRatio, p.ratio)
	}

	if p.frameSize < minFrameSize || p.frameSize%2 != 0 {
		return fmt.Errorf("%w: frame size %d", ErrInvalidSize, p.frameSize)
	}

	if p.synthesisHop < 1 || p.synthesisHop >= p.frameSize {
		return fmt.Errorf("%w: %d for frame size %d", ErrInvalidHop, p.synthesisHop, p.frameSize)
	}

	if p.analysisHop < 1 {
		return fmt.Errorf("pitch: analysis hop must be >= 1: %d", p.analysisHop)
	}

	return nil
}

func (p *PhaseVocoder) rebuildState() error {
	if err := p.validate(); err != nil {
		return err
	}

	fft, err := spectrum.NewRealFFT(p.frameSize)
	if err != nil {
		return fmt.Errorf("pitch: %w", err)
	}

	p.fft = fft
	p.windowCoeffs = window.Generate(p.windowType, p.frameSize, window.WithPeriodic())

	bins := fft.Bins()

	p.omega = make([]float64, bins)
	for k := range bins {
		p.omega[k] = 2 * math.Pi * float64(k) / float64(p.frameSize)
	}

	p.prevPhi = make([]float64, bins)
	p.psi = make([]float64, bins)
	p.spec = make([]complex128, bins)
	p.grain = make([]float64, p.frameSize)
	p.synth = make([]float64, p.frameSize)
	p.lookup = p.lookup[:0]
	p.lookupHa = 0

	return nil
}

// updateAnalysisHop derives the analysis hop from the synthesis hop and
// ratio, keeping grains overlapping.
func (p *PhaseVocoder) updateAnalysisHop() {
	if !isFinitePositive(p.ratio) || p.synthesisHop < 1 {
		return
	}

	ha := math.Round(float64(p.synthesisHop) / p.ratio)
	p.analysisHop = int(math.Max(1, math.Min(ha, float64(p.frameSize))))
}

// interpolate reads buf at fractional index x by linear interpolation;
// positions past the end read as zero.
func interpolate(buf []float64, x float64) float64 {
	i := int(x)
	if i >= len(buf) {
		return 0
	}

	frac := x - float64(i)

	next := 0.0
	if i+1 < len(buf) {
		next = buf[i+1]
	}

	return buf[i] + frac*(next-buf[i])
}

func normalize(buf, norm []float64) {
	for i := range buf {
		if norm[i] > normFloor {
			buf[i] /= norm[i]
		}
	}
}

func fitLength(in []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, in)

	return out
}

func isFinitePositive(x float64) bool {
	return x > 0 && !math.IsInf(x, 0) && !math.IsNaN(x)
}

func binMagnitude(c complex128) float64 {
	re, im := real(c), imag(c)
	return mathSqrt(re*re + im*im)
}
