package vocoder

import (
	"testing"

	"github.com/cwbudde/algo-lpcvoc/dsp/effects/pitch"
	"github.com/cwbudde/algo-lpcvoc/dsp/lpc"
)

func TestTierForSampleRate(t *testing.T) {
	tests := []struct {
		sr   float64
		want int
	}{
		{8000, 512},
		{22050, 512},
		{24000, 512},
		{44100, 1024},
		{48000, 1024},
		{88200, 2048},
		{192000, 2048},
	}

	for _, tt := range tests {
		if got := TierForSampleRate(tt.sr); got != tt.want {
			t.Fatalf("TierForSampleRate(%g) = %d, want %d", tt.sr, got, tt.want)
		}
	}

	list := Tiers()
	if len(list) != 3 || list[0].Name != "S" || list[2].WindowSize != 2048 {
		t.Fatalf("unexpected tiers: %+v", list)
	}

	list[0].WindowSize = 1
	if Tiers()[0].WindowSize != 512 {
		t.Fatal("Tiers() must return a copy")
	}
}

func TestDefaultConfigBuildsEngine(t *testing.T) {
	cfg := DefaultConfig(48000)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if e.WindowSize() != 1024 || e.ModelOrder() != DefaultModelOrder {
		t.Fatalf("window=%d order=%d", e.WindowSize(), e.ModelOrder())
	}

	if e.LatencySamples() != 1024 {
		t.Fatalf("LatencySamples() = %d", e.LatencySamples())
	}
}

func TestConfigOptionsApplied(t *testing.T) {
	cfg := DefaultConfig(22050)
	cfg.Mix = 0.5
	cfg.Passthrough = true
	cfg.OutputGain = 2
	cfg.Autocorrelation = lpc.MethodFFT.String()
	cfg.Filter = "time"
	cfg.Fallback = "silence"
	cfg.ShiftRatio = 1.25
	cfg.Resample = pitch.ResamplePolyphase.String()
	cfg.UnisonVoices = 2
	cfg.UnisonSpread = 0.1
	cfg.Window = "hamming"

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if e.Mix() != 0.5 || !e.Passthrough() || e.OutputGain() != 2 {
		t.Fatalf("mix=%g passthrough=%v gain=%g", e.Mix(), e.Passthrough(), e.OutputGain())
	}

	if e.FilterMode() != FilterTimeDomain || e.cfg.fallback != FallbackSilence {
		t.Fatalf("filter=%v fallback=%v", e.FilterMode(), e.cfg.fallback)
	}

	if e.cfg.method != lpc.MethodFFT || e.cfg.resample != pitch.ResamplePolyphase {
		t.Fatalf("method=%v resample=%v", e.cfg.method, e.cfg.resample)
	}

	if e.ShiftRatio() != 1.25 || e.cfg.unisonVoices != 2 {
		t.Fatalf("shift=%g voices=%d", e.ShiftRatio(), e.cfg.unisonVoices)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad autocorrelation", func(c *Config) { c.Autocorrelation = "wavelet" }},
		{"bad filter", func(c *Config) { c.Filter = "iir" }},
		{"bad fallback", func(c *Config) { c.Fallback = "panic" }},
		{"bad resample", func(c *Config) { c.Resample = "cubic" }},
		{"bad window", func(c *Config) { c.Window = "gauss-ish" }},
		{"odd window size", func(c *Config) { c.WindowSize = 1001 }},
		{"order too high", func(c *Config) { c.ModelOrder = 600 }},
		{"overlap one", func(c *Config) { c.Overlap = 1 }},
		{"mix out of range", func(c *Config) { c.Mix = 2 }},
		{"zero shift", func(c *Config) { c.ShiftRatio = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig(44100)
			tc.mutate(&cfg)

			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestParseModes(t *testing.T) {
	for _, m := range []FilterMode{FilterSpectral, FilterTimeDomain} {
		got, err := ParseFilterMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseFilterMode(%q) = %v, %v", m.String(), got, err)
		}
	}

	for _, f := range []Fallback{FallbackDry, FallbackSilence} {
		got, err := ParseFallback(f.String())
		if err != nil || got != f {
			t.Fatalf("ParseFallback(%q) = %v, %v", f.String(), got, err)
		}
	}

	if _, err := ParseFilterMode("bogus"); err == nil {
		t.Fatal("expected ParseFilterMode error")
	}

	if _, err := ParseFallback("bogus"); err == nil {
		t.Fatal("expected ParseFallback error")
	}
}
