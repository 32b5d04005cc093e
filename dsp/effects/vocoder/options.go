package vocoder

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-lpcvoc/dsp/effects/pitch"
	"github.com/cwbudde/algo-lpcvoc/dsp/frame"
	"github.com/cwbudde/algo-lpcvoc/dsp/lpc"
	"github.com/cwbudde/algo-lpcvoc/dsp/window"
)

const (
	defaultMix        = 1.0
	defaultOutputGain = 1.0
	defaultShiftRatio = 1.0

	maxOutputGain = 16.0
	minShiftRatio = 0.25
	maxShiftRatio = 4.0

	// Upper bound for the per-frame power-matching gain (+60 dB).
	maxMatchGain = 1000.0
)

// FilterMode selects how the carrier frame is shaped by the voice envelope.
type FilterMode int

const (
	// FilterSpectral divides the carrier spectrum by the spectrum of A(z).
	FilterSpectral FilterMode = iota
	// FilterTimeDomain runs the direct-form all-pole recursion per frame.
	FilterTimeDomain
)

func (m FilterMode) String() string {
	switch m {
	case FilterSpectral:
		return "spectral"
	case FilterTimeDomain:
		return "time"
	default:
		return fmt.Sprintf("FilterMode(%d)", int(m))
	}
}

// ParseFilterMode parses "spectral" or "time".
func ParseFilterMode(s string) (FilterMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "spectral", "fft":
		return FilterSpectral, nil
	case "time", "time-domain", "recursive":
		return FilterTimeDomain, nil
	default:
		return 0, fmt.Errorf("vocoder: unknown filter mode %q", s)
	}
}

// Fallback selects what replaces a frame whose analysis failed.
type Fallback int

const (
	// FallbackDry passes the windowed carrier frame through.
	FallbackDry Fallback = iota
	// FallbackSilence outputs zeros for the frame.
	FallbackSilence
)

func (f Fallback) String() string {
	switch f {
	case FallbackDry:
		return "dry"
	case FallbackSilence:
		return "silence"
	default:
		return fmt.Sprintf("Fallback(%d)", int(f))
	}
}

// ParseFallback parses "dry" or "silence".
func ParseFallback(s string) (Fallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dry", "passthrough":
		return FallbackDry, nil
	case "silence", "mute":
		return FallbackSilence, nil
	default:
		return 0, fmt.Errorf("vocoder: unknown fallback %q", s)
	}
}

// Tracer receives (carrier, output) pairs for every processed sample.
type Tracer = frame.Tracer

// TracerFunc adapts a function to a Tracer.
type TracerFunc = frame.TracerFunc

// Option mutates engine construction parameters.
type Option func(*config) error

type config struct {
	mix         float64
	passthrough bool
	outputGain  float64
	noiseFloor  float64
	method      lpc.Method
	window      window.Type
	filter      FilterMode
	fallback    Fallback
	tracer      Tracer
	diagnostics func(error)

	shiftRatio   float64
	resample     pitch.ResampleMode
	unisonVoices int
	unisonSpread float64
}

func defaultConfig() config {
	return config{
		mix:          defaultMix,
		outputGain:   defaultOutputGain,
		noiseFloor:   lpc.DefaultNoiseFloor,
		method:       lpc.MethodTimeDomain,
		window:       window.TypeHann,
		filter:       FilterSpectral,
		fallback:     FallbackDry,
		shiftRatio:   defaultShiftRatio,
		resample:     pitch.ResampleLinear,
		unisonVoices: 1,
	}
}

// WithMix sets the dry/wet balance in [0, 1]; 1 is fully wet.
func WithMix(mix float64) Option {
	return func(c *config) error {
		if err := validateMix(mix); err != nil {
			return err
		}

		c.mix = mix

		return nil
	}
}

// WithPassthrough routes the latency-aligned carrier to the output while
// analysis keeps running.
func WithPassthrough(enabled bool) Option {
	return func(c *config) error {
		c.passthrough = enabled
		return nil
	}
}

// WithOutputGain sets the linear output gain in [0, 16].
func WithOutputGain(gain float64) Option {
	return func(c *config) error {
		if err := validateOutputGain(gain); err != nil {
			return err
		}

		c.outputGain = gain

		return nil
	}
}

// WithNoiseFloor sets the white-noise correction applied to R[0].
func WithNoiseFloor(floor float64) Option {
	return func(c *config) error {
		if floor < 0 || floor > 1 || math.IsNaN(floor) {
			return fmt.Errorf("vocoder: noise floor must be in [0, 1]: %g", floor)
		}

		c.noiseFloor = floor

		return nil
	}
}

// WithAutocorrelation selects the autocorrelation estimator.
func WithAutocorrelation(m lpc.Method) Option {
	return func(c *config) error {
		if m != lpc.MethodTimeDomain && m != lpc.MethodFFT {
			return fmt.Errorf("vocoder: invalid autocorrelation method: %v", m)
		}

		c.method = m

		return nil
	}
}

// WithWindow sets the analysis and synthesis window shape.
func WithWindow(t window.Type) Option {
	return func(c *config) error {
		c.window = t
		return nil
	}
}

// WithFilterMode selects spectral division or time-domain recursion.
func WithFilterMode(m FilterMode) Option {
	return func(c *config) error {
		if m != FilterSpectral && m != FilterTimeDomain {
			return fmt.Errorf("vocoder: invalid filter mode: %v", m)
		}

		c.filter = m

		return nil
	}
}

// WithFallback sets the policy for frames whose analysis fails.
func WithFallback(f Fallback) Option {
	return func(c *config) error {
		if f != FallbackDry && f != FallbackSilence {
			return fmt.Errorf("vocoder: invalid fallback: %v", f)
		}

		c.fallback = f

		return nil
	}
}

// WithTracer installs a per-sample trace sink. nil disables tracing.
func WithTracer(t Tracer) Option {
	return func(c *config) error {
		c.tracer = t
		return nil
	}
}

// WithDiagnostics installs a callback for per-frame failures. It runs on
// the processing goroutine and must not block.
func WithDiagnostics(fn func(error)) Option {
	return func(c *config) error {
		c.diagnostics = fn
		return nil
	}
}

// WithShiftRatio sets the voice pre-shift ratio used by Render, in [0.25, 4].
func WithShiftRatio(ratio float64) Option {
	return func(c *config) error {
		if err := validateShiftRatio(ratio); err != nil {
			return err
		}

		c.shiftRatio = ratio

		return nil
	}
}

// WithShiftResampling selects the phase vocoder's duration correction.
func WithShiftResampling(m pitch.ResampleMode) Option {
	return func(c *config) error {
		if m != pitch.ResampleLinear && m != pitch.ResamplePolyphase {
			return fmt.Errorf("vocoder: invalid resample mode: %v", m)
		}

		c.resample = m

		return nil
	}
}

// WithUnison replaces the single phase vocoder with voices detuned by
// +-spread around the shift ratio.
func WithUnison(voices int, spread float64) Option {
	return func(c *config) error {
		if voices < 1 {
			return fmt.Errorf("%w: %d", pitch.ErrInvalidVoices, voices)
		}

		if spread < 0 || spread >= 1 || math.IsNaN(spread) {
			return fmt.Errorf("vocoder: unison spread must be in [0, 1): %g", spread)
		}

		c.unisonVoices = voices
		c.unisonSpread = spread

		return nil
	}
}

func validateMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) {
		return fmt.Errorf("vocoder: mix must be in [0, 1]: %g", mix)
	}

	return nil
}

func validateOutputGain(gain float64) error {
	if gain < 0 || gain > maxOutputGain || math.IsNaN(gain) {
		return fmt.Errorf("vocoder: output gain must be in [0, %g]: %g", maxOutputGain, gain)
	}

	return nil
}

func validateShiftRatio(ratio float64) error {
	if ratio < minShiftRatio || ratio > maxShiftRatio || math.IsNaN(ratio) {
		return fmt.Errorf("%w: %g not in [%g, %g]", pitch.ErrInvalidShiftRatio, ratio, minShiftRatio, maxShiftRatio)
	}

	return nil
}
