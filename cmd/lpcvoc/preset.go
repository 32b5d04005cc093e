package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-lpcvoc/dsp/core"
	"github.com/cwbudde/algo-lpcvoc/dsp/effects/vocoder"
)

// loadPreset returns the defaults for sampleRate overlaid with the YAML
// preset at path. Keys absent from the preset keep their defaults. A zero
// window size selects the sample-rate tier.
func loadPreset(path string, sampleRate float64) (vocoder.Config, error) {
	cfg := vocoder.DefaultConfig(sampleRate)
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read preset %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse preset %s: %w", path, err)
	}

	cfg.SampleRate = sampleRate
	if cfg.WindowSize == 0 {
		cfg.WindowSize = vocoder.TierForSampleRate(sampleRate)
	}

	return cfg, nil
}

// vocoderFlags are the command-line overrides for a vocoder.Config.
type vocoderFlags struct {
	windowSize   int
	order        int
	overlap      float64
	mix          float64
	passthrough  bool
	gainDB       float64
	noiseFloor   float64
	autocorr     string
	window       string
	filter       string
	fallback     string
	shift        float64
	resample     string
	unisonVoices int
	unisonSpread float64
}

func (f *vocoderFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.windowSize, "window", 0, "analysis window size in samples (0 = sample-rate tier)")
	fs.IntVar(&f.order, "order", vocoder.DefaultModelOrder, "LPC model order")
	fs.Float64Var(&f.overlap, "overlap", 0.5, "frame overlap ratio in [0, 1)")
	fs.Float64Var(&f.mix, "mix", 1, "dry/wet mix in [0, 1]")
	fs.BoolVar(&f.passthrough, "passthrough", false, "route the latency-aligned carrier to the output")
	fs.Float64Var(&f.gainDB, "gain-db", 0, "output gain in dB")
	fs.Float64Var(&f.noiseFloor, "noise-floor", 1e-4, "white-noise correction on R[0]")
	fs.StringVar(&f.autocorr, "autocorr", "time", "autocorrelation method (time, fft)")
	fs.StringVar(&f.window, "window-type", "hann", "analysis window (hann, hamming, blackman, ...)")
	fs.StringVar(&f.filter, "filter", "spectral", "carrier filter (spectral, time)")
	fs.StringVar(&f.fallback, "fallback", "dry", "frame fallback on analysis failure (dry, silence)")
	fs.Float64Var(&f.shift, "shift", 1, "voice pre-shift ratio in [0.25, 4]")
	fs.StringVar(&f.resample, "resample", "linear", "pitch shifter duration correction (linear, polyphase)")
	fs.IntVar(&f.unisonVoices, "unison", 1, "number of detuned voice shifters")
	fs.Float64Var(&f.unisonSpread, "spread", 0, "unison ratio spread")
}

// apply overrides cfg with every flag set on the command line.
func (f *vocoderFlags) apply(cmd *cobra.Command, cfg *vocoder.Config) {
	fs := cmd.Flags()

	if fs.Changed("window") && f.windowSize > 0 {
		cfg.WindowSize = f.windowSize
	}

	if fs.Changed("order") {
		cfg.ModelOrder = f.order
	}

	if fs.Changed("overlap") {
		cfg.Overlap = f.overlap
	}

	if fs.Changed("mix") {
		cfg.Mix = f.mix
	}

	if fs.Changed("passthrough") {
		cfg.Passthrough = f.passthrough
	}

	if fs.Changed("gain-db") {
		cfg.OutputGain = core.DBToLinear(f.gainDB)
	}

	if fs.Changed("noise-floor") {
		cfg.NoiseFloor = f.noiseFloor
	}

	if fs.Changed("autocorr") {
		cfg.Autocorrelation = f.autocorr
	}

	if fs.Changed("window-type") {
		cfg.Window = f.window
	}

	if fs.Changed("filter") {
		cfg.Filter = f.filter
	}

	if fs.Changed("fallback") {
		cfg.Fallback = f.fallback
	}

	if fs.Changed("shift") {
		cfg.ShiftRatio = f.shift
	}

	if fs.Changed("resample") {
		cfg.Resample = f.resample
	}

	if fs.Changed("unison") {
		cfg.UnisonVoices = f.unisonVoices
	}

	if fs.Changed("spread") {
		cfg.UnisonSpread = f.unisonSpread
	}
}

// resolveConfig loads the preset and applies command-line overrides.
func resolveConfig(cmd *cobra.Command, g *globalOptions, f *vocoderFlags, sampleRate float64) (vocoder.Config, error) {
	cfg, err := loadPreset(g.preset, sampleRate)
	if err != nil {
		return cfg, err
	}

	f.apply(cmd, &cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid vocoder settings: %w", err)
	}

	return cfg, nil
}
