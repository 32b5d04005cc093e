package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-lpcvoc/dsp/core"
	"github.com/cwbudde/algo-lpcvoc/dsp/effects/vocoder"
	"github.com/cwbudde/algo-lpcvoc/dsp/lpc"
	"github.com/cwbudde/algo-lpcvoc/dsp/window"
	"github.com/cwbudde/algo-lpcvoc/internal/wavio"
	freqstats "github.com/cwbudde/algo-lpcvoc/stats/frequency"
	timestats "github.com/cwbudde/algo-lpcvoc/stats/time"
)

type analyzeOptions struct {
	input     string
	offset    float64
	frameSize int
	order     int
	autocorr  string
	window    string
	nfft      int
	peaks     int
}

func newAnalyzeCmd(g *globalOptions) *cobra.Command {
	o := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print the LPC model and formant peaks of one frame",
		Long: `Analyze windows one frame of the (mono-mixed) input, fits an all-pole
model and prints the frame level, the model coefficients and reflection
coefficients, the prediction error, shape descriptors of the spectral
envelope and its peaks with their 3 dB bandwidths.

Example:
  lpcvoc analyze -i speech.wav --offset 0.25 --order 16 --peaks 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, g, o)
		},
	}

	cmd.Flags().StringVarP(&o.input, "input", "i", "", "input WAV file")
	cmd.Flags().Float64Var(&o.offset, "offset", 0, "frame start in seconds")
	cmd.Flags().IntVar(&o.frameSize, "frame", 0, "frame size in samples (0 = sample-rate tier)")
	cmd.Flags().IntVar(&o.order, "order", vocoder.DefaultModelOrder, "LPC model order")
	cmd.Flags().StringVar(&o.autocorr, "autocorr", "time", "autocorrelation method (time, fft)")
	cmd.Flags().StringVar(&o.window, "window-type", "hann", "analysis window")
	cmd.Flags().IntVar(&o.nfft, "nfft", 4096, "envelope transform size")
	cmd.Flags().IntVar(&o.peaks, "peaks", 5, "maximum number of envelope peaks (0 = all)")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runAnalyze(cmd *cobra.Command, g *globalOptions, o *analyzeOptions) error {
	method, err := lpc.ParseMethod(o.autocorr)
	if err != nil {
		return err
	}

	wt, err := window.Parse(o.window)
	if err != nil {
		return err
	}

	in, err := wavio.ReadFile(o.input)
	if err != nil {
		return err
	}

	sampleRate := float64(in.SampleRate)

	size := o.frameSize
	if size == 0 {
		size = vocoder.TierForSampleRate(sampleRate)
	}

	start := int(o.offset * sampleRate)
	if start < 0 {
		return fmt.Errorf("--offset must be >= 0: %g", o.offset)
	}

	x := in.Mono()
	frame := make([]float64, size)

	if start < len(x) {
		copy(frame, x[start:])
	}

	level := timestats.Calculate(frame)

	p, err := lpc.NewPredictor(size, o.order, lpc.WithMethod(method), lpc.WithWindow(wt))
	if err != nil {
		return err
	}

	model, err := p.Analyze(frame)
	if err != nil {
		if !errors.Is(err, lpc.ErrDegenerateModel) {
			return err
		}

		g.log.WithFields(logrus.Fields{
			"command": "analyze",
			"offset":  o.offset,
		}).Warn("degenerate frame, reporting identity model")
	}

	env, err := lpc.Envelope(model, o.nfft)
	if err != nil {
		return err
	}

	peaks := lpc.EnvelopePeaks(env, sampleRate, o.peaks)

	return printAnalysis(cmd.OutOrStdout(), analysisReport{
		sampleRate: in.SampleRate,
		start:      start,
		size:       size,
		method:     method,
		model:      model,
		level:      level,
		shape:      freqstats.Calculate(env, sampleRate),
		peaks:      peaks,
		bandwidths: peakBandwidths(env, sampleRate, peaks),
	})
}

func peakBandwidths(env []float64, sampleRate float64, peaks []lpc.Peak) []float64 {
	bw := make([]float64, len(peaks))
	for i, pk := range peaks {
		bw[i] = freqstats.PeakBandwidth(env, sampleRate, pk.Bin)
	}

	return bw
}

type analysisReport struct {
	sampleRate int
	start      int
	size       int
	method     lpc.Method
	model      *lpc.Model
	level      timestats.Stats
	shape      freqstats.Stats
	peaks      []lpc.Peak
	bandwidths []float64
}

func printAnalysis(w io.Writer, r analysisReport) error {
	m := r.model

	fmt.Fprintf(w, "Frame:       samples %d..%d at %d Hz\n", r.start, r.start+r.size, r.sampleRate)
	fmt.Fprintf(w, "Level:       RMS %.1f dB, peak %.1f dB, crest %.1f dB, %d zero crossings\n",
		r.level.RMS_dB, r.level.Peak_dB, r.level.CrestFactor_dB, r.level.ZeroCrossings)
	fmt.Fprintf(w, "Order:       %d (%s autocorrelation)\n", m.Order(), r.method)
	fmt.Fprintf(w, "Error:       %.6g (gain %.6g)\n", m.Error, m.Gain())
	fmt.Fprintf(w, "Stable:      %v\n", m.Stable())
	fmt.Fprintf(w, "Envelope:    centroid %.1f Hz, spread %.1f Hz, rolloff %.1f Hz, flatness %.4f\n\n",
		r.shape.Centroid, r.shape.Spread, r.shape.Rolloff, r.shape.Flatness)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "k\ta[k]\treflection")

	for k := 1; k <= m.Order(); k++ {
		fmt.Fprintf(tw, "%d\t%+.6f\t%+.6f\n", k, m.Coefficients[k], m.Reflection[k-1])
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "peak\tfrequency\tlevel\tbandwidth")

	for i, pk := range r.peaks {
		fmt.Fprintf(tw, "%d\t%.1f Hz\t%.1f dB\t%.1f Hz\n", i+1, pk.Frequency, core.LinearToDB(pk.Magnitude), r.bandwidths[i])
	}

	return tw.Flush()
}
