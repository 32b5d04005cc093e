package main

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-lpcvoc/dsp/dither"
	"github.com/cwbudde/algo-lpcvoc/internal/wavio"
)

// outputFlags selects the WAV sample format and, for pcm16, the dither
// applied during quantization.
type outputFlags struct {
	encoding string
	dither   string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.encoding, "encoding", "pcm16", "output encoding (pcm16, float32)")
	cmd.Flags().StringVar(&f.dither, "dither", "tpdf", "pcm16 dither (none, rect, tpdf)")
}

func (f *outputFlags) resolve() (wavio.Encoding, []wavio.EncodeOption, error) {
	enc, err := wavio.ParseEncoding(f.encoding)
	if err != nil {
		return enc, nil, err
	}

	dt, err := dither.ParseDitherType(f.dither)
	if err != nil {
		return enc, nil, err
	}

	if enc != wavio.PCM16 || dt == dither.DitherNone {
		return enc, nil, nil
	}

	q, err := dither.NewQuantizer(dither.WithBitDepth(16), dither.WithDitherType(dt))
	if err != nil {
		return enc, nil, err
	}

	return enc, []wavio.EncodeOption{wavio.WithQuantizer(q)}, nil
}
