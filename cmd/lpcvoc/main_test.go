package main

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-lpcvoc/internal/testutil"
	"github.com/cwbudde/algo-lpcvoc/internal/wavio"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func writeWAV(t *testing.T, dir, name string, rate int, channels ...[]float64) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := wavio.WriteFile(path, &wavio.Audio{SampleRate: rate, Channels: channels}, wavio.Float32); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}

	return path
}

// formantVoice is a pulse train at f0 through a resonator at formant Hz.
func formantVoice(rate float64, f0, formant float64, n int) []float64 {
	const r = 0.97

	a1 := -2 * r * math.Cos(2*math.Pi*formant/rate)
	a2 := r * r
	period := int(rate / f0)

	out := make([]float64, n)

	var y1, y2 float64

	for i := range out {
		e := 0.0
		if i%period == 0 {
			e = 0.1
		}

		y := e - a1*y1 - a2*y2
		out[i] = y
		y2, y1 = y1, y
	}

	return out
}

func TestTiersCommand(t *testing.T) {
	out, _, err := runCLI(t, "tiers")
	if err != nil {
		t.Fatalf("tiers error = %v", err)
	}

	for _, want := range []string{"<= 24000 Hz", "512", "1024", "> 48000 Hz", "2048"} {
		if !strings.Contains(out, want) {
			t.Fatalf("tiers output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeFindsFormant(t *testing.T) {
	const rate = 16000

	dir := t.TempDir()
	in := writeWAV(t, dir, "voice.wav", rate, formantVoice(rate, 100, 1000, 4096))

	out, _, err := runCLI(t, "analyze", "-i", in, "--order", "8", "--offset", "0.05", "--peaks", "0")
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	if !strings.Contains(out, "Order:       8") || !strings.Contains(out, "Stable:      true") {
		t.Fatalf("unexpected analyze output:\n%s", out)
	}

	if !strings.Contains(out, "Envelope:    centroid") || !strings.Contains(out, "Level:       RMS") {
		t.Fatalf("missing level or envelope summary:\n%s", out)
	}

	idx := strings.Index(out, "\npeak ")
	if idx < 0 {
		t.Fatalf("missing peak table:\n%s", out)
	}

	lines := strings.Split(strings.TrimSpace(out[idx+1:]), "\n")
	if len(lines) < 2 {
		t.Fatalf("no peaks reported:\n%s", out)
	}

	bestFreq, bestLevel, bestWidth := 0.0, math.Inf(-1), 0.0

	for _, line := range lines[1:] {
		var (
			n         int
			freq      float64
			hz, db    string
			level, bw float64
		)

		if _, err := fmt.Sscan(line, &n, &freq, &hz, &level, &db, &bw); err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}

		if level > bestLevel {
			bestFreq, bestLevel, bestWidth = freq, level, bw
		}
	}

	if bestWidth <= 0 || bestWidth > 1000 {
		t.Fatalf("formant bandwidth %.1f Hz out of range", bestWidth)
	}

	if math.Abs(bestFreq-1000) > 100 {
		t.Fatalf("strongest peak at %.1f Hz, want about 1000 Hz", bestFreq)
	}
}

func TestAnalyzeSilenceWarns(t *testing.T) {
	dir := t.TempDir()
	in := writeWAV(t, dir, "silence.wav", 8000, make([]float64, 2048))

	out, logs, err := runCLI(t, "analyze", "-i", in, "--order", "4")
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	if !strings.Contains(logs, "degenerate frame") {
		t.Fatalf("expected degenerate warning, logs:\n%s", logs)
	}

	if !strings.Contains(out, "Error:       1 ") {
		t.Fatalf("expected identity model:\n%s", out)
	}
}

func TestRenderCommand(t *testing.T) {
	const rate = 22050

	dir := t.TempDir()
	n := 4 * 512
	carrier := testutil.DeterministicNoise(1, 0.3, n)
	voice := formantVoice(rate, 120, 800, n)

	cPath := writeWAV(t, dir, "carrier.wav", rate, carrier)
	vPath := writeWAV(t, dir, "voice.wav", rate, voice)
	oPath := filepath.Join(dir, "out.wav")

	_, logs, err := runCLI(t, "render", "--carrier", cPath, "--voice", vPath, "-o", oPath,
		"--order", "12", "--encoding", "float32", "--trace-every", "256")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}

	got, err := wavio.ReadFile(oPath)
	if err != nil {
		t.Fatal(err)
	}

	if got.SampleRate != rate || got.Frames() != n || len(got.Channels) != 1 {
		t.Fatalf("rate=%d frames=%d channels=%d", got.SampleRate, got.Frames(), len(got.Channels))
	}

	testutil.RequireFinite(t, got.Channels[0])

	if testutil.Energy(got.Channels[0]) == 0 {
		t.Fatal("render produced silence")
	}

	for _, want := range []string{"render complete", "msg=trace", "failures=0"} {
		if !strings.Contains(logs, want) {
			t.Fatalf("logs missing %q:\n%s", want, logs)
		}
	}

	if strings.Contains(logs, "frame fell back") {
		t.Fatalf("clean render reported a fallback:\n%s", logs)
	}
}

func TestRenderStereoTracesEachChannel(t *testing.T) {
	const rate = 8000

	dir := t.TempDir()
	n := 3000
	left := testutil.DeterministicNoise(3, 0.3, n)
	right := testutil.DeterministicNoise(4, 0.3, n)
	voice := formantVoice(rate, 100, 600, n)

	cPath := writeWAV(t, dir, "carrier.wav", rate, left, right)
	vPath := writeWAV(t, dir, "voice.wav", rate, voice)
	oPath := filepath.Join(dir, "out.wav")

	_, logs, err := runCLI(t, "render", "--carrier", cPath, "--voice", vPath, "-o", oPath,
		"--stereo", "--encoding", "float32", "--trace-every", "1000")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}

	// 3000 samples plus 512 of latency flush: samples 0, 1000, 2000, 3000.
	for _, ch := range []string{"channel=left", "channel=right"} {
		count := 0

		for _, line := range strings.Split(logs, "\n") {
			if strings.Contains(line, "msg=trace") && strings.Contains(line, ch) {
				count++
			}
		}

		if count != 4 {
			t.Fatalf("%s trace lines = %d, want 4:\n%s", ch, count, logs)
		}
	}

	if strings.Contains(logs, "frame fell back") {
		t.Fatalf("stereo render reported a fallback:\n%s", logs)
	}
}

func TestRenderStereoMixZeroCopiesCarrier(t *testing.T) {
	const rate = 8000

	dir := t.TempDir()
	n := 3000
	left := testutil.DeterministicNoise(2, 0.3, n)
	right := testutil.DeterministicSine(200, rate, 0.3, n)
	voice := formantVoice(rate, 100, 600, n)

	cPath := writeWAV(t, dir, "carrier.wav", rate, left, right)
	vPath := writeWAV(t, dir, "voice.wav", rate, voice)
	oPath := filepath.Join(dir, "out.wav")

	_, _, err := runCLI(t, "render", "--carrier", cPath, "--voice", vPath, "-o", oPath,
		"--stereo", "--mid-side", "--mix", "0", "--encoding", "float32")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}

	got, err := wavio.ReadFile(oPath)
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Channels) != 2 {
		t.Fatalf("channels = %d, want 2", len(got.Channels))
	}

	testutil.RequireSliceNearlyEqual(t, got.Channels[0], left, 1e-6)
	testutil.RequireSliceNearlyEqual(t, got.Channels[1], right, 1e-6)
}

func TestRenderPresetAndOverride(t *testing.T) {
	dir := t.TempDir()
	preset := filepath.Join(dir, "preset.yaml")

	data := "window_size: 256\nmodel_order: 10\nmix: 0.5\nfilter: time\n"
	if err := os.WriteFile(preset, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{Use: "test"}

	var f vocoderFlags
	f.register(cmd)

	if err := cmd.ParseFlags([]string{"--order", "16"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadPreset(preset, 8000)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.WindowSize != 256 || cfg.ModelOrder != 10 || cfg.Mix != 0.5 || cfg.Filter != "time" {
		t.Fatalf("preset not applied: %+v", cfg)
	}

	if cfg.Overlap != 0.5 || cfg.OutputGain != 1 {
		t.Fatalf("defaults lost: %+v", cfg)
	}

	cfg, err = resolveConfig(cmd, &globalOptions{preset: preset}, &f, 8000)
	if err != nil {
		t.Fatalf("resolveConfig() error = %v", err)
	}

	if cfg.ModelOrder != 16 {
		t.Fatalf("flag override ignored: order = %d", cfg.ModelOrder)
	}

	if cfg.Mix != 0.5 || cfg.WindowSize != 256 {
		t.Fatalf("unset flags overrode preset: %+v", cfg)
	}
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	a := writeWAV(t, dir, "a.wav", 8000, make([]float64, 100))
	b := writeWAV(t, dir, "b.wav", 16000, make([]float64, 100))
	out := filepath.Join(dir, "out.wav")

	tests := []struct {
		name string
		args []string
	}{
		{"missing flags", []string{"render"}},
		{"rate mismatch", []string{"render", "--carrier", a, "--voice", b, "-o", out}},
		{"bad order", []string{"render", "--carrier", a, "--voice", a, "-o", out, "--order", "0"}},
		{"bad encoding", []string{"render", "--carrier", a, "--voice", a, "-o", out, "--encoding", "mp3"}},
		{"bad dither", []string{"render", "--carrier", a, "--voice", a, "-o", out, "--dither", "gauss"}},
		{"missing preset", []string{"--preset", filepath.Join(dir, "nope.yaml"), "render", "--carrier", a, "--voice", a, "-o", out}},
		{"bad log level", []string{"--log-level", "loud", "tiers"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := runCLI(t, tc.args...); err == nil {
				t.Fatalf("expected error for %v", tc.args)
			}
		})
	}
}

func TestShiftCommand(t *testing.T) {
	const rate = 16000

	dir := t.TempDir()
	x := testutil.DeterministicSine(440, rate, 0.5, 8000)
	in := writeWAV(t, dir, "in.wav", rate, x, x)
	out := filepath.Join(dir, "out.wav")

	if _, _, err := runCLI(t, "shift", "-i", in, "-o", out, "--semitones", "7", "--frame", "512", "--encoding", "float32"); err != nil {
		t.Fatalf("shift error = %v", err)
	}

	got, err := wavio.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Channels) != 2 || got.Frames() != len(x) {
		t.Fatalf("channels=%d frames=%d", len(got.Channels), got.Frames())
	}

	testutil.RequireFinite(t, got.Channels[0])

	if _, _, err := runCLI(t, "shift", "-i", in, "-o", out, "--ratio", "2", "--semitones", "3"); err == nil {
		t.Fatal("expected error for --ratio with --semitones")
	}

	if _, _, err := runCLI(t, "shift", "-i", in, "-o", out, "--ratio", "-1"); err == nil {
		t.Fatal("expected error for negative ratio")
	}
}

func TestOutputFlagsResolve(t *testing.T) {
	tests := []struct {
		encoding, dither string
		wantOpts         int
	}{
		{"pcm16", "tpdf", 1},
		{"pcm16", "none", 0},
		{"float32", "tpdf", 0},
	}

	for _, tc := range tests {
		f := outputFlags{encoding: tc.encoding, dither: tc.dither}

		_, opts, err := f.resolve()
		if err != nil {
			t.Fatalf("resolve(%s, %s) error = %v", tc.encoding, tc.dither, err)
		}

		if len(opts) != tc.wantOpts {
			t.Fatalf("resolve(%s, %s) options = %d, want %d", tc.encoding, tc.dither, len(opts), tc.wantOpts)
		}
	}
}

func TestWindowsCommand(t *testing.T) {
	out, _, err := runCLI(t, "windows", "--size", "512", "--overlap", "0.5", "hann", "rectangular")
	if err != nil {
		t.Fatalf("windows error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out)
	}

	hann := strings.Fields(lines[2])
	if hann[0] != "hann" || hann[2] != "256" || hann[len(hann)-2] != "1.0000" || hann[len(hann)-1] != "yes" {
		t.Fatalf("unexpected hann row: %q", lines[2])
	}

	if _, _, err := runCLI(t, "windows", "gaussian"); err == nil {
		t.Fatal("expected error for unknown window")
	}

	if _, _, err := runCLI(t, "windows", "--overlap", "1"); err == nil {
		t.Fatal("expected error for overlap 1")
	}
}
