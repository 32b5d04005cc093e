package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-vecmath"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-lpcvoc/dsp/frame"
	"github.com/cwbudde/algo-lpcvoc/dsp/window"
)

var windowNames = []string{
	"rectangular",
	"hann",
	"hamming",
	"blackman",
	"blackman-harris",
	"tukey",
	"triangle",
	"cosine",
}

type windowsOptions struct {
	size    int
	overlap float64
	alpha   float64
}

func newWindowsCmd() *cobra.Command {
	o := &windowsOptions{}

	cmd := &cobra.Command{
		Use:   "windows [window-name ...]",
		Short: "Print overlap-add properties of the analysis windows",
		Long: `Windows prints, for each window, its spectral figures and the
overlap-add gain the vocoder applies at the hop implied by --overlap.
COLA marks windows whose overlapped sum is constant at that hop.

Without arguments all windows are listed.

Example:
  lpcvoc windows --size 1024 --overlap 0.75 hann blackman`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindows(cmd, o, args)
		},
	}

	cmd.Flags().IntVar(&o.size, "size", 1024, "window length in samples")
	cmd.Flags().Float64Var(&o.overlap, "overlap", 0.5, "frame overlap ratio in [0, 1)")
	cmd.Flags().Float64Var(&o.alpha, "alpha", 0.5, "Tukey taper ratio")

	return cmd
}

func runWindows(cmd *cobra.Command, o *windowsOptions, names []string) error {
	hop, err := frame.HopForOverlap(o.size, o.overlap)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		names = windowNames
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Window\tSize\tHop\tCoherent Gain\tENBW [bins]\tSidelobe [dB]\tOLA Gain\tCOLA")
	fmt.Fprintln(tw, "------\t----\t---\t-------------\t-----------\t-------------\t--------\t----")

	for _, name := range names {
		t, err := window.Parse(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return err
		}

		coeffs := window.Generate(t, o.size, window.WithPeriodic(), window.WithAlpha(o.alpha))

		enbw, err := window.EquivalentNoiseBandwidth(coeffs)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		gain, err := window.OverlapGain(coeffs, hop)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		sidelobe := "-"
		if meta := window.Info(t); meta.HighestSidelobe != 0 {
			sidelobe = fmt.Sprintf("%.1f", meta.HighestSidelobe)
		}

		cola := "no"
		if window.IsCOLA(coeffs, hop, 1e-9) {
			cola = "yes"
		}

		fmt.Fprintf(tw, "%s\t%d\t%d\t%.4f\t%.4f\t%s\t%.4f\t%s\n",
			name, o.size, hop, vecmath.Sum(coeffs)/float64(len(coeffs)), enbw, sidelobe, gain, cola)
	}

	return tw.Flush()
}
