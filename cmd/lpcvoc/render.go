package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-lpcvoc/dsp/effects/vocoder"
	"github.com/cwbudde/algo-lpcvoc/internal/wavio"
)

type renderOptions struct {
	carrier    string
	voice      string
	output     string
	stereo     bool
	midSide    bool
	traceEvery int

	format  outputFlags
	vocoder vocoderFlags
}

func newRenderCmd(g *globalOptions) *cobra.Command {
	o := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Cross-synthesize a carrier WAV with the envelope of a voice WAV",
		Long: `Render imposes the LPC spectral envelope of the voice signal onto the
carrier signal and writes the result aligned with the carrier.

The voice is resized to the carrier length. When --shift is not 1 the voice
is pitch-shifted by the phase vocoder first.

Example:
  lpcvoc render --carrier synth.wav --voice speech.wav -o out.wav --order 24`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, g, o)
		},
	}

	cmd.Flags().StringVar(&o.carrier, "carrier", "", "carrier WAV file (excitation)")
	cmd.Flags().StringVar(&o.voice, "voice", "", "voice WAV file (spectral envelope)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output WAV file")
	o.format.register(cmd)
	cmd.Flags().BoolVar(&o.stereo, "stereo", false, "process two channels with independent engines")
	cmd.Flags().BoolVar(&o.midSide, "mid-side", false, "with --stereo, process mid and side instead of left and right")
	cmd.Flags().IntVar(&o.traceEvery, "trace-every", 0, "log one (input, output) pair every N samples at debug level")
	o.vocoder.register(cmd)

	_ = cmd.MarkFlagRequired("carrier")
	_ = cmd.MarkFlagRequired("voice")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runRender(cmd *cobra.Command, g *globalOptions, o *renderOptions) error {
	enc, encOpts, err := o.format.resolve()
	if err != nil {
		return err
	}

	carrier, err := wavio.ReadFile(o.carrier)
	if err != nil {
		return err
	}

	voice, err := wavio.ReadFile(o.voice)
	if err != nil {
		return err
	}

	if carrier.SampleRate != voice.SampleRate {
		return fmt.Errorf("sample rates differ: carrier %d Hz, voice %d Hz", carrier.SampleRate, voice.SampleRate)
	}

	sampleRate := float64(carrier.SampleRate)

	cfg, err := resolveConfig(cmd, g, &o.vocoder, sampleRate)
	if err != nil {
		return err
	}

	log := g.log.WithFields(logrus.Fields{
		"command":     "render",
		"sample_rate": carrier.SampleRate,
		"window":      cfg.WindowSize,
		"order":       cfg.ModelOrder,
		"overlap":     cfg.Overlap,
		"filter":      cfg.Filter,
	})

	opts := []vocoder.Option{vocoder.WithDiagnostics(func(err error) {
		log.WithError(err).Debug("frame fell back")
	})}

	if o.traceEvery > 0 && !g.log.IsLevelEnabled(logrus.DebugLevel) {
		g.log.SetLevel(logrus.DebugLevel)
	}

	start := time.Now()

	var out *wavio.Audio
	if o.stereo {
		out, err = renderStereo(cfg, o.midSide, carrier, voice, opts, log, o.traceEvery)
	} else {
		if o.traceEvery > 0 {
			opts = append(opts, vocoder.WithTracer(newTraceSink(log, o.traceEvery)))
		}

		out, err = renderMono(cfg, carrier, voice, opts, log)
	}

	if err != nil {
		return err
	}

	if err := wavio.WriteFile(o.output, out, enc, encOpts...); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"output":   o.output,
		"frames":   out.Frames(),
		"channels": len(out.Channels),
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Info("render complete")

	return nil
}

func renderMono(cfg vocoder.Config, carrier, voice *wavio.Audio, opts []vocoder.Option, log *logrus.Entry) (*wavio.Audio, error) {
	e, err := vocoder.New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	c := carrier.Mono()
	v := fitLength(voice.Mono(), len(c))

	y, err := e.Render(nil, c, v)
	if err != nil {
		return nil, err
	}

	st := e.Stats()
	log.WithFields(logrus.Fields{
		"frames":   st.Frames,
		"failures": st.Failures,
		"latency":  e.LatencySamples(),
	}).Info("analysis summary")

	return &wavio.Audio{SampleRate: carrier.SampleRate, Channels: [][]float64{y}}, nil
}

func renderStereo(cfg vocoder.Config, midSide bool, carrier, voice *wavio.Audio, opts []vocoder.Option,
	log *logrus.Entry, traceEvery int,
) (*wavio.Audio, error) {
	mode, names := vocoder.ChannelLeftRight, [2]string{"left", "right"}
	if midSide {
		mode, names = vocoder.ChannelMidSide, [2]string{"mid", "side"}
	}

	s, err := vocoder.NewStereo(cfg, mode, opts...)
	if err != nil {
		return nil, err
	}

	if traceEvery > 0 {
		left, right := s.Channels()
		left.SetTracer(newTraceSink(log.WithField("channel", names[0]), traceEvery))
		right.SetTracer(newTraceSink(log.WithField("channel", names[1]), traceEvery))
	}

	cl, cr := stereoPair(carrier)
	vl, vr := stereoPair(voice)
	n := len(cl)
	vl, vr = fitLength(vl, n), fitLength(vr, n)

	if cfg.ShiftRatio != 1 || cfg.UnisonVoices > 1 {
		left, right := s.Channels()

		if vl, err = left.ShiftSignal(vl, cfg.ShiftRatio); err != nil {
			return nil, err
		}

		if vr, err = right.ShiftSignal(vr, cfg.ShiftRatio); err != nil {
			return nil, err
		}
	}

	latency := s.LatencySamples()
	outL := make([]float64, n)
	outR := make([]float64, n)

	for i := 0; i < n+latency; i++ {
		var l, r float64
		if i < n {
			l, r = s.ProcessSample(cl[i], cr[i], vl[i], vr[i])
		} else {
			l, r = s.Flush()
		}

		if i >= latency {
			outL[i-latency], outR[i-latency] = l, r
		}
	}

	return &wavio.Audio{SampleRate: carrier.SampleRate, Channels: [][]float64{outL, outR}}, nil
}

// stereoPair returns the first two channels, duplicating mono input.
func stereoPair(a *wavio.Audio) ([]float64, []float64) {
	if len(a.Channels) == 1 {
		return a.Channels[0], a.Channels[0]
	}

	return a.Channels[0], a.Channels[1]
}

// fitLength truncates or zero-pads x to n samples.
func fitLength(x []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, x)

	return out
}

// traceSink logs every n-th traced sample.
type traceSink struct {
	log   *logrus.Entry
	every int
	count int
}

func newTraceSink(log *logrus.Entry, every int) *traceSink {
	return &traceSink{log: log, every: every}
}

func (t *traceSink) Trace(input, output float64) {
	if t.count%t.every == 0 {
		t.log.WithFields(logrus.Fields{
			"sample": t.count,
			"input":  input,
			"output": output,
		}).Debug("trace")
	}

	t.count++
}
