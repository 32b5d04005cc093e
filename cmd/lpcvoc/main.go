// Command lpcvoc is an offline driver for the LPC cross-synthesis vocoder
// and the phase-vocoder pitch shifter.
//
// Usage:
//
//	lpcvoc [global flags] <command> [flags]
//
// Commands:
//
//	render  - impose the spectral envelope of a voice WAV onto a carrier WAV
//	shift   - pitch-shift a WAV without changing its duration
//	analyze - print the LPC model and formant peaks of one WAV frame
//	tiers   - print the window size tiers keyed off sample rate
//	windows - print overlap-add properties of the analysis windows
//
// Examples:
//
//	lpcvoc render --carrier synth.wav --voice speech.wav -o out.wav
//	lpcvoc render --preset robot.yaml --carrier synth.wav --voice speech.wav -o out.wav --order 32
//	lpcvoc shift -i speech.wav -o up.wav --semitones 4
//	lpcvoc analyze -i speech.wav --offset 0.5 --peaks 4
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
