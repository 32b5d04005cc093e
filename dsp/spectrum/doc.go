// Package spectrum provides the real-valued spectral transform and
// spectrum-domain helpers shared by the analysis and synthesis stages.
//
// [RealFFT] maps a frame of n real samples (n even) to n/2+1 complex bins
// and back. Power-of-two sizes run on algo-fft plans; every other even size
// falls back to gonum's mixed-radix real FFT, so window sizes such as 4000
// samples remain usable.
//
// The remaining helpers operate on complex bins produced by a [RealFFT]:
// magnitude, power and phase extraction plus principal-value phase wrapping.
package spectrum
