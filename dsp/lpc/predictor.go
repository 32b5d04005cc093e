package lpc

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-lpcvoc/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// DefaultNoiseFloor is the default white-noise correction applied to R[0]
// (-40 dB).
const DefaultNoiseFloor = 1e-4

// Option configures a Predictor.
type Option func(*config) error

type config struct {
	method     Method
	noiseFloor float64
	window     window.Type
}

func defaultConfig() config {
	return config{
		method:     MethodTimeDomain,
		noiseFloor: DefaultNoiseFloor,
		window:     window.TypeHann,
	}
}

// WithMethod selects the autocorrelation estimator.
func WithMethod(m Method) Option {
	return func(c *config) error {
		if m != MethodTimeDomain && m != MethodFFT {
			return fmt.Errorf("lpc: unknown autocorrelation method: %d", int(m))
		}

		c.method = m

		return nil
	}
}

// WithNoiseFloor sets the white-noise correction: R[0] is multiplied by
// 1+floor before the recursion. Zero disables the correction.
func WithNoiseFloor(floor float64) Option {
	return func(c *config) error {
		if floor < 0 || floor > 1 || math.IsNaN(floor) {
			return fmt.Errorf("lpc: noise floor must be in [0, 1]: %g", floor)
		}

		c.noiseFloor = floor

		return nil
	}
}

// WithWindow sets the analysis window applied before autocorrelation.
// The periodic form is used.
func WithWindow(t window.Type) Option {
	return func(c *config) error {
		c.window = t
		return nil
	}
}

// Predictor analyzes fixed-size frames into all-pole models. All scratch
// memory is allocated up front, so Analyze does not allocate. A Predictor
// is not safe for concurrent use.
type Predictor struct {
	size  int
	order int
	cfg   config

	window  []float64
	frame   []float64
	centred []float64
	r       []float64
	fftAC   *fftAutocorr
	model   *Model
}

// NewPredictor creates a predictor for frames of size samples.
func NewPredictor(size, order int, opts ...Option) (*Predictor, error) {
	if size < 2 {
		return nil, fmt.Errorf("lpc: frame size must be >= 2: %d", size)
	}

	if order < 1 || order >= size {
		return nil, fmt.Errorf("%w: %d for frame size %d", ErrInvalidModelOrder, order, size)
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

	p := &Predictor{
		size:    size,
		order:   order,
		cfg:     cfg,
		window:  window.Generate(cfg.window, size, window.WithPeriodic()),
		frame:   make([]float64, size),
		centred: make([]float64, size),
		r:       make([]float64, order+1),
		model:   NewModel(order),
	}

	if cfg.method == MethodFFT {
		ac, err := newFFTAutocorr(size)
		if err != nil {
			return nil, err
		}

		p.fftAC = ac
	}

	return p, nil
}

// Size returns the frame length.
func (p *Predictor) Size() int { return p.size }

// Order returns the model order.
func (p *Predictor) Order() int { return p.order }

// Method returns the autocorrelation estimator in use.
func (p *Predictor) Method() Method { return p.cfg.method }

// NoiseFloor returns the white-noise correction factor.
func (p *Predictor) NoiseFloor() float64 { return p.cfg.noiseFloor }

// Analyze windows frame, estimates its autocorrelation and solves for the
// model. The returned model is owned by the predictor and is overwritten by
// the next call. On error the model is reset to the identity filter.
func (p *Predictor) Analyze(frame []float64) (*Model, error) {
	if len(frame) != p.size {
		return nil, fmt.Errorf("%w: frame has %d samples, want %d", ErrLengthMismatch, len(frame), p.size)
	}

	vecmath.MulBlock(p.frame, frame, p.window)

	var err error
	if p.fftAC != nil {
		err = p.fftAC.compute(p.r, p.frame)
	} else {
		err = autocorrTime(p.r, p.frame, p.centred)
	}

	if err == nil {
		p.r[0] *= 1 + p.cfg.noiseFloor
		err = p.model.Solve(p.r, p.order)
	}

	if err != nil {
		p.model.Identity()
		return p.model, err
	}

	return p.model, nil
}

// Autocorrelation returns the lags computed by the last Analyze call,
// including the noise-floor correction on R[0].
func (p *Predictor) Autocorrelation() []float64 { return p.r }
