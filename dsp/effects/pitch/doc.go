// Package pitch provides block-oriented pitch shifting by phase vocoder.
//
// Included processors:
//   - PhaseVocoder: grain-resampling phase vocoder that keeps the input
//     duration while scaling pitch by the shift ratio.
//   - Unison: several detuned phase vocoders mixed with 1/N attenuation.
//   - PitchProcessor: shared interface for interchangeable shifters.
//
// Phase accumulators persist across Process calls so a stream can be fed in
// consecutive blocks. They are zeroed once at construction and again only by
// an explicit Reset, which produces an audible discontinuity.
package pitch
