package vocoder

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-lpcvoc/dsp/effects/pitch"
	"github.com/cwbudde/algo-lpcvoc/dsp/lpc"
	"github.com/cwbudde/algo-lpcvoc/dsp/window"
)

// DefaultModelOrder is the LPC order used by DefaultConfig.
const DefaultModelOrder = 20

// Tier is a window size preset keyed off the sample rate.
type Tier struct {
	Name          string
	MaxSampleRate float64
	WindowSize    int
}

var tiers = []Tier{
	{Name: "S", MaxSampleRate: 24000, WindowSize: 512},
	{Name: "M", MaxSampleRate: 48000, WindowSize: 1024},
	{Name: "L", MaxSampleRate: math.Inf(1), WindowSize: 2048},
}

// Tiers returns the window size tiers in ascending order.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)

	return out
}

// TierForSampleRate returns the window size for sampleRate: 512 up to
// 24 kHz, 1024 up to 48 kHz and 2048 above.
func TierForSampleRate(sampleRate float64) int {
	for _, t := range tiers {
		if sampleRate <= t.MaxSampleRate {
			return t.WindowSize
		}
	}

	return tiers[len(tiers)-1].WindowSize
}

// Config is the flat, serializable form of an engine configuration.
// String fields accept the names understood by ParseFilterMode,
// ParseFallback, lpc.ParseMethod, window.Parse and pitch.ParseResampleMode.
type Config struct {
	WindowSize      int     `yaml:"window_size"`
	ModelOrder      int     `yaml:"model_order"`
	Overlap         float64 `yaml:"overlap"`
	SampleRate      float64 `yaml:"sample_rate"`
	Mix             float64 `yaml:"mix"`
	Passthrough     bool    `yaml:"passthrough"`
	OutputGain      float64 `yaml:"output_gain"`
	NoiseFloor      float64 `yaml:"noise_floor"`
	Autocorrelation string  `yaml:"autocorrelation"`
	Window          string  `yaml:"window"`
	Filter          string  `yaml:"filter"`
	Fallback        string  `yaml:"fallback"`
	ShiftRatio      float64 `yaml:"shift_ratio"`
	Resample        string  `yaml:"resample"`
	UnisonVoices    int     `yaml:"unison_voices"`
	UnisonSpread    float64 `yaml:"unison_spread"`
}

// DefaultConfig returns the defaults for sampleRate, with the window size
// chosen by TierForSampleRate.
func DefaultConfig(sampleRate float64) Config {
	return Config{
		WindowSize:      TierForSampleRate(sampleRate),
		ModelOrder:      DefaultModelOrder,
		Overlap:         0.5,
		SampleRate:      sampleRate,
		Mix:             defaultMix,
		OutputGain:      defaultOutputGain,
		NoiseFloor:      lpc.DefaultNoiseFloor,
		Autocorrelation: lpc.MethodTimeDomain.String(),
		Window:          "hann",
		Filter:          FilterSpectral.String(),
		Fallback:        FallbackDry.String(),
		ShiftRatio:      defaultShiftRatio,
		Resample:        pitch.ResampleLinear.String(),
		UnisonVoices:    1,
	}
}

// Options converts the scalar fields of c to engine options.
func (c Config) Options() ([]Option, error) {
	method, err := lpc.ParseMethod(c.Autocorrelation)
	if err != nil {
		return nil, fmt.Errorf("vocoder: %w", err)
	}

	filter, err := ParseFilterMode(c.Filter)
	if err != nil {
		return nil, err
	}

	fallback, err := ParseFallback(c.Fallback)
	if err != nil {
		return nil, err
	}

	resample, err := pitch.ParseResampleMode(c.Resample)
	if err != nil {
		return nil, fmt.Errorf("vocoder: %w", err)
	}

	opts := []Option{
		WithMix(c.Mix),
		WithPassthrough(c.Passthrough),
		WithOutputGain(c.OutputGain),
		WithNoiseFloor(c.NoiseFloor),
		WithAutocorrelation(method),
		WithFilterMode(filter),
		WithFallback(fallback),
		WithShiftRatio(c.ShiftRatio),
		WithShiftResampling(resample),
		WithUnison(max(c.UnisonVoices, 1), c.UnisonSpread),
	}

	if c.Window != "" {
		wt, err := window.Parse(c.Window)
		if err != nil {
			return nil, fmt.Errorf("vocoder: %w", err)
		}

		opts = append(opts, WithWindow(wt))
	}

	return opts, nil
}

// Validate reports the first invalid field of c.
func (c Config) Validate() error {
	_, err := New(c)
	return err
}

// New creates an engine from c. extra options are applied after the ones
// derived from c.
func New(c Config, extra ...Option) (*Engine, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}

	return Configure(c.WindowSize, c.ModelOrder, c.Overlap, c.SampleRate, append(opts, extra...)...)
}
