package vocoder

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-lpcvoc/dsp/core"
	"github.com/cwbudde/algo-lpcvoc/dsp/delay"
	"github.com/cwbudde/algo-lpcvoc/dsp/effects/pitch"
	"github.com/cwbudde/algo-lpcvoc/dsp/filter/spectral"
	"github.com/cwbudde/algo-lpcvoc/dsp/frame"
	"github.com/cwbudde/algo-lpcvoc/dsp/lpc"
	"github.com/cwbudde/algo-lpcvoc/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

const minWindowSize = 4

// shifter is the block pitch shifter behind ShiftSignal.
type shifter interface {
	pitch.PitchProcessor
	ProcessWithError(input []float64) ([]float64, error)
}

// Stats counts processed and failed frames since the last Reset.
type Stats struct {
	Frames   int
	Failures int
	LastErr  error
}

// Engine is a mono LPC cross-synthesis engine.
//
// ProcessSample consumes one carrier and one voice sample and returns one
// output sample delayed by LatencySamples. An Engine is not safe for
// concurrent use.
type Engine struct {
	windowSize int
	order      int
	hop        int
	overlap    float64
	sampleRate float64
	cfg        config

	frames    *frame.Engine
	predictor *lpc.Predictor
	filter    *spectral.Filter
	synth     *lpc.Synthesizer
	dry       *delay.Line
	shifter   shifter
	model     *lpc.Model

	window   []float64
	windowed []float64

	failures int
	lastErr  error

	// padding counts consecutive Flush calls since the last real sample.
	padding int
}

// Configure creates an engine. windowSize must be even and at least
// 2*modelOrder; modelOrder must be >= 1; overlap must be in [0, 1).
func Configure(windowSize, modelOrder int, overlap, sampleRate float64, opts ...Option) (*Engine, error) {
	if windowSize < minWindowSize || windowSize%2 != 0 {
		return nil, fmt.Errorf("vocoder: window size %d: %w", windowSize, ErrInvalidSize)
	}

	if err := validateOrder(windowSize, modelOrder); err != nil {
		return nil, err
	}

	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidSampleRate, sampleRate)
	}

	hop, err := frame.HopForOverlap(windowSize, overlap)
	if err != nil {
		return nil, fmt.Errorf("vocoder: %w", err)
	}

	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		windowSize: windowSize,
		order:      modelOrder,
		hop:        hop,
		overlap:    overlap,
		sampleRate: sampleRate,
		cfg:        cfg,
		window:     window.Generate(cfg.window, windowSize, window.WithPeriodic()),
		windowed:   make([]float64, windowSize),
	}

	if err := e.buildModel(modelOrder); err != nil {
		return nil, err
	}

	e.filter, err = spectral.NewFilter(windowSize, spectral.WithWindow(cfg.window))
	if err != nil {
		return nil, fmt.Errorf("vocoder: %w", err)
	}

	gain, err := window.OverlapGain(e.window, hop)
	if err != nil {
		return nil, fmt.Errorf("vocoder: %w", err)
	}

	e.frames, err = frame.New(windowSize, hop, e.processFrame,
		frame.WithInputs(2),
		frame.WithGain(gain),
	)
	if err != nil {
		return nil, fmt.Errorf("vocoder: %w", err)
	}

	e.dry, err = delay.New(windowSize)
	if err != nil {
		return nil, fmt.Errorf("vocoder: %w", err)
	}

	if err := e.buildShifter(); err != nil {
		return nil, err
	}

	return e, nil
}

func validateOrder(windowSize, order int) error {
	if order < 1 || 2*order > windowSize {
		return fmt.Errorf("%w: %d for window size %d", ErrInvalidModelOrder, order, windowSize)
	}

	return nil
}

func (e *Engine) buildModel(order int) error {
	predictor, err := lpc.NewPredictor(e.windowSize, order,
		lpc.WithMethod(e.cfg.method),
		lpc.WithNoiseFloor(e.cfg.noiseFloor),
		lpc.WithWindow(e.cfg.window),
	)
	if err != nil {
		return fmt.Errorf("vocoder: %w", err)
	}

	synth, err := lpc.NewSynthesizer(order)
	if err != nil {
		return fmt.Errorf("vocoder: %w", err)
	}

	e.predictor = predictor
	e.synth = synth
	e.order = order

	return nil
}

func (e *Engine) buildShifter() error {
	opts := []pitch.Option{
		pitch.WithFrameSize(e.windowSize),
		pitch.WithShiftRatio(e.cfg.shiftRatio),
		pitch.WithWindow(e.cfg.window),
		pitch.WithResampleMode(e.cfg.resample),
	}

	var (
		s   shifter
		err error
	)

	if e.cfg.unisonVoices > 1 {
		s, err = pitch.NewUnison(e.sampleRate, e.cfg.unisonVoices, e.cfg.unisonSpread, opts...)
	} else {
		s, err = pitch.NewPhaseVocoder(e.sampleRate, opts...)
	}

	if err != nil {
		return fmt.Errorf("vocoder: %w", err)
	}

	e.shifter = s

	return nil
}

// WindowSize returns the analysis window length.
func (e *Engine) WindowSize() int { return e.windowSize }

// ModelOrder returns the LPC model order.
func (e *Engine) ModelOrder() int { return e.order }

// Hop returns the hop size derived from the overlap ratio.
func (e *Engine) Hop() int { return e.hop }

// Overlap returns the configured overlap ratio.
func (e *Engine) Overlap() float64 { return e.overlap }

// SampleRate returns the sample rate in Hz.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Mix returns the dry/wet balance.
func (e *Engine) Mix() float64 { return e.cfg.mix }

// Passthrough reports whether the dry carrier is routed to the output.
func (e *Engine) Passthrough() bool { return e.cfg.passthrough }

// OutputGain returns the linear output gain.
func (e *Engine) OutputGain() float64 { return e.cfg.outputGain }

// FilterMode returns the carrier filtering mode.
func (e *Engine) FilterMode() FilterMode { return e.cfg.filter }

// ShiftRatio returns the voice pre-shift ratio used by Render.
func (e *Engine) ShiftRatio() float64 { return e.cfg.shiftRatio }

// LatencySamples returns the processing delay, equal to the window size.
func (e *Engine) LatencySamples() int { return e.frames.Latency() }

// Model returns the model of the most recent voice frame. It is owned by
// the engine and overwritten on the next hop.
// It is nil before the first hop.
func (e *Engine) Model() *lpc.Model { return e.model }

// Stats returns frame counters since the last Reset.
func (e *Engine) Stats() Stats {
	return Stats{Frames: e.frames.Frames(), Failures: e.failures, LastErr: e.lastErr}
}

// SetMix updates the dry/wet balance.
func (e *Engine) SetMix(mix float64) error {
	if err := validateMix(mix); err != nil {
		return err
	}

	e.cfg.mix = mix

	return nil
}

// SetPassthrough toggles dry passthrough without interrupting analysis.
func (e *Engine) SetPassthrough(enabled bool) { e.cfg.passthrough = enabled }

// SetOutputGain updates the linear output gain.
func (e *Engine) SetOutputGain(gain float64) error {
	if err := validateOutputGain(gain); err != nil {
		return err
	}

	e.cfg.outputGain = gain

	return nil
}

// SetTracer replaces the trace sink; nil disables tracing.
func (e *Engine) SetTracer(t Tracer) { e.cfg.tracer = t }

// SetModelOrder replaces the predictor with one of the given order. It
// allocates and should not be called from a real-time callback.
func (e *Engine) SetModelOrder(order int) error {
	if err := validateOrder(e.windowSize, order); err != nil {
		return err
	}

	if order == e.order {
		return nil
	}

	return e.buildModel(order)
}

// SetShiftRatio updates the voice pre-shift ratio used by Render.
func (e *Engine) SetShiftRatio(ratio float64) error {
	if err := validateShiftRatio(ratio); err != nil {
		return err
	}

	// The shifter rejects a ratio (for example a unison voice detuned
	// below zero) without changing state.
	if err := e.shifter.SetPitchRatio(ratio); err != nil {
		return err
	}

	e.cfg.shiftRatio = ratio

	return nil
}

// ProcessSample consumes one carrier and one voice sample and returns the
// next output sample. Outputs during the first LatencySamples calls are
// silent. The result is always finite.
func (e *Engine) ProcessSample(carrier, voice float64) float64 {
	e.padding = 0
	return e.process(carrier, voice)
}

// Flush feeds silence into both inputs and returns the next output sample,
// draining the latency region at the end of a stream. Frames made only of
// flushed input are not analyzed and never count as failures.
func (e *Engine) Flush() float64 {
	e.padding++
	return e.process(0, 0)
}

func (e *Engine) process(carrier, voice float64) float64 {
	wet, ok := e.frames.Push(carrier, voice)
	if !ok {
		wet = 0
	}
	dry := e.dry.Process(carrier)

	y := dry
	if !e.cfg.passthrough {
		y = e.cfg.mix*wet + (1-e.cfg.mix)*dry
	}

	y = core.Sanitize(y * e.cfg.outputGain)

	if e.cfg.tracer != nil {
		e.cfg.tracer.Trace(carrier, y)
	}

	return y
}

// ProcessBlock processes equal-length carrier and voice blocks into dst.
// dst may alias carrier or voice.
func (e *Engine) ProcessBlock(dst, carrier, voice []float64) error {
	if len(carrier) != len(voice) || len(dst) != len(carrier) {
		return fmt.Errorf("%w: dst=%d carrier=%d voice=%d", ErrLengthMismatch, len(dst), len(carrier), len(voice))
	}

	for i := range dst {
		dst[i] = e.ProcessSample(carrier[i], voice[i])
	}

	return nil
}

// ShiftSignal pitch-shifts input by ratio with the engine's phase vocoder.
// The output has the same length as input. Phase state carries over
// between calls until Reset. Once the shifter accepts ratio it becomes the
// shift ratio reported by ShiftRatio and used by Render.
func (e *Engine) ShiftSignal(input []float64, ratio float64) ([]float64, error) {
	if err := e.shifter.SetPitchRatio(ratio); err != nil {
		return nil, err
	}

	e.cfg.shiftRatio = ratio

	return e.shifter.ProcessWithError(input)
}

// Render cross-synthesizes whole signals offline into dst, reusing its
// capacity. The voice is pre-shifted by the configured shift ratio, and the
// result is aligned with the carrier by dropping the latency region.
func (e *Engine) Render(dst, carrier, voice []float64) ([]float64, error) {
	if len(carrier) != len(voice) {
		return nil, fmt.Errorf("%w: carrier=%d voice=%d", ErrLengthMismatch, len(carrier), len(voice))
	}

	v := voice
	if e.cfg.shiftRatio != 1 || e.cfg.unisonVoices > 1 {
		shifted, err := e.ShiftSignal(voice, e.cfg.shiftRatio)
		if err != nil {
			return nil, err
		}

		v = shifted
	}

	n := len(carrier)
	latency := e.LatencySamples()
	dst = core.EnsureLen(dst, n)

	for i := 0; i < n+latency; i++ {
		var y float64
		if i < n {
			y = e.ProcessSample(carrier[i], v[i])
		} else {
			y = e.Flush()
		}

		if i >= latency {
			dst[i-latency] = y
		}
	}

	return dst, nil
}

// Reset clears all frame, delay and phase state.
func (e *Engine) Reset() {
	e.frames.Reset()
	e.dry.Reset()
	e.synth.Reset()
	e.shifter.Reset()
	e.model = nil
	e.failures = 0
	e.lastErr = nil
	e.padding = 0
}

// processFrame is the frame.Engine callback: in[0] is the carrier frame,
// in[1] the voice frame, both oldest sample first.
func (e *Engine) processFrame(out []float64, in [][]float64) {
	if e.padding >= e.windowSize {
		clear(out)
		return
	}

	carrier, voice := in[0], in[1]
	vecmath.MulBlock(e.windowed, carrier, e.window)

	err := e.synthesize(out, carrier, voice)
	if err == nil {
		return
	}

	e.failures++
	e.lastErr = err

	if e.cfg.diagnostics != nil {
		e.cfg.diagnostics(err)
	}

	switch e.cfg.fallback {
	case FallbackSilence:
		clear(out)
	default:
		copy(out, e.windowed)
		core.SanitizeBlock(out)
	}
}

func (e *Engine) synthesize(out, carrier, voice []float64) error {
	frameIndex := e.frames.Frames()

	model, err := e.predictor.Analyze(voice)
	e.model = model
	if err != nil {
		return fmt.Errorf("vocoder: frame %d: %w", frameIndex, err)
	}

	switch e.cfg.filter {
	case FilterTimeDomain:
		// Every frame starts from rest; the window hides the onset.
		e.synth.Reset()

		if err := e.synth.SetCoefficients(model.Coefficients); err != nil {
			return fmt.Errorf("vocoder: frame %d: %w", frameIndex, err)
		}

		e.synth.Process(out, carrier)
		vecmath.MulBlockInPlace(out, e.window)
	default:
		if err := e.filter.ApplyAllPole(out, carrier, model.Coefficients); err != nil {
			return fmt.Errorf("vocoder: frame %d: %w", frameIndex, err)
		}
	}

	spectral.MatchPower(out, spectral.Energy(e.windowed), maxMatchGain)

	for _, v := range out {
		if !core.IsFinite(v) {
			return fmt.Errorf("vocoder: frame %d: %w", frameIndex, ErrNonFinite)
		}
	}

	return nil
}
