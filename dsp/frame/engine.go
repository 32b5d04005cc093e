package frame

import (
	"fmt"
	"math"
)

// State is the position of the engine in its per-hop cycle.
type State int

const (
	// StateFilling accumulates samples until the next hop boundary.
	StateFilling State = iota
	// StateFrameReady is held while the process callback runs.
	StateFrameReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateFilling:
		return "filling"
	case StateFrameReady:
		return "frame-ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ProcessFunc consumes one frame per input stream, oldest sample first, and
// writes the output frame into out. out is zeroed before the call. The
// slices are owned by the engine and only valid during the call.
type ProcessFunc func(out []float64, in [][]float64)

// Tracer receives the first input sample and the output sample of every
// Push.
type Tracer interface {
	Trace(input, output float64)
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(input, output float64)

// Trace calls f(input, output).
func (f TracerFunc) Trace(input, output float64) { f(input, output) }

// Option configures an Engine.
type Option func(*config) error

type config struct {
	inputs int
	gain   float64
	tracer Tracer
}

func defaultConfig() config {
	return config{inputs: 1, gain: 1}
}

// WithInputs sets the number of input streams per Push.
func WithInputs(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("frame: inputs must be >= 1: %d", n)
		}

		c.inputs = n

		return nil
	}
}

// WithGain scales every processed frame before it is accumulated. Use the
// window overlap gain to normalize overlap-add.
func WithGain(g float64) Option {
	return func(c *config) error {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return fmt.Errorf("frame: gain must be finite: %g", g)
		}

		c.gain = g

		return nil
	}
}

// WithTrace installs a per-sample trace sink.
func WithTrace(t Tracer) Option {
	return func(c *config) error {
		c.tracer = t
		return nil
	}
}

// HopForOverlap converts an overlap ratio in [0, 1) to a hop size >= 1.
func HopForOverlap(size int, overlap float64) (int, error) {
	if size < 2 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	if !(overlap >= 0 && overlap < 1) {
		return 0, fmt.Errorf("%w: %g", ErrInvalidOverlap, overlap)
	}

	hop := int(math.Round(float64(size) * (1 - overlap)))

	return max(1, min(hop, size)), nil
}

// Engine is a sample-driven overlap-add framer. It is not safe for
// concurrent use; stereo processing uses one engine per channel.
type Engine struct {
	size int
	hop  int
	cfg  config

	process ProcessFunc

	in     [][]float64
	frames [][]float64
	out    []float64
	result []float64

	pos    int
	count  int
	primed int
	frameN int
	state  State
}

// New creates an engine with window size and hop. process is invoked once
// every hop samples.
func New(size, hop int, process ProcessFunc, opts ...Option) (*Engine, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	if hop < 1 || hop > size {
		return nil, fmt.Errorf("%w: hop %d for size %d", ErrInvalidHop, hop, size)
	}

	if process == nil {
		return nil, fmt.Errorf("frame: process callback must not be nil")
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
		size:    size,
		hop:     hop,
		cfg:     cfg,
		process: process,
		in:      make([][]float64, cfg.inputs),
		frames:  make([][]float64, cfg.inputs),
		out:     make([]float64, size),
		result:  make([]float64, size),
	}

	for i := range e.in {
		e.in[i] = make([]float64, size)
		e.frames[i] = make([]float64, size)
	}

	return e, nil
}

// Size returns the window size.
func (e *Engine) Size() int { return e.size }

// Hop returns the hop size.
func (e *Engine) Hop() int { return e.hop }

// Inputs returns the number of input streams.
func (e *Engine) Inputs() int { return e.cfg.inputs }

// Latency returns the processing delay in samples, equal to the window size.
func (e *Engine) Latency() int { return e.size }

// State returns the current cycle state.
func (e *Engine) State() State { return e.state }

// Frames returns how many frames have been processed since the last Reset.
func (e *Engine) Frames() int { return e.frameN }

// Push consumes one sample per input stream and returns the next output
// sample. ok is false and out is zero while the first Latency() outputs
// are pre-roll.
// Missing inputs read as zero and extra inputs are ignored.
func (e *Engine) Push(samples ...float64) (out float64, ok bool) {
	for i, ring := range e.in {
		if i < len(samples) {
			ring[e.pos] = samples[i]
		} else {
			ring[e.pos] = 0
		}
	}

	out = e.out[e.pos]
	e.out[e.pos] = 0

	// Slots read during pre-roll stand for time before the first input.
	if e.primed < e.size {
		out = 0
	}

	e.pos++
	if e.pos == e.size {
		e.pos = 0
	}

	if e.primed < e.size {
		e.primed++
	} else {
		ok = true
	}

	e.count++
	if e.count == e.hop {
		e.count = 0
		e.runFrame()
	}

	if e.cfg.tracer != nil {
		var in float64
		if len(samples) > 0 {
			in = samples[0]
		}

		e.cfg.tracer.Trace(in, out)
	}

	return out, ok
}

func (e *Engine) runFrame() {
	e.state = StateFrameReady

	// pos now indexes the oldest sample.
	tail := e.size - e.pos
	for i, ring := range e.in {
		copy(e.frames[i], ring[e.pos:])
		copy(e.frames[i][tail:], ring[:e.pos])
	}

	clear(e.result)
	e.process(e.result, e.frames)

	g := e.cfg.gain
	for i, v := range e.result {
		e.out[(e.pos+i)%e.size] += g * v
	}

	e.frameN++
	e.state = StateFilling
}

// Reset clears all rings and counters. Pending output is discarded.
func (e *Engine) Reset() {
	for i := range e.in {
		clear(e.in[i])
		clear(e.frames[i])
	}

	clear(e.out)
	clear(e.result)

	e.pos = 0
	e.count = 0
	e.primed = 0
	e.frameN = 0
	e.state = StateFilling
}
