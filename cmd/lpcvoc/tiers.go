package main

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-lpcvoc/dsp/effects/vocoder"
)

func newTiersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Print the window size tiers keyed off sample rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "tier\tsample rate\twindow\tlatency @ max rate")

			tiers := vocoder.Tiers()
			for i, t := range tiers {
				rate := "any"
				latency := "-"

				if math.IsInf(t.MaxSampleRate, 1) && i > 0 {
					rate = fmt.Sprintf("> %.0f Hz", tiers[i-1].MaxSampleRate)
				} else if !math.IsInf(t.MaxSampleRate, 1) {
					rate = fmt.Sprintf("<= %.0f Hz", t.MaxSampleRate)
					latency = fmt.Sprintf("%.1f ms", 1000*float64(t.WindowSize)/t.MaxSampleRate)
				}

				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", t.Name, rate, t.WindowSize, latency)
			}

			return tw.Flush()
		},
	}
}
