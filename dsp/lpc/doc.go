// Package lpc implements linear predictive coding analysis and synthesis.
//
// A frame is summarized by an all-pole model
//
//	H(z) = 1 / A(z),  A(z) = 1 + a[1]z^-1 + ... + a[p]z^-p
//
// whose coefficients are obtained from the normalized autocorrelation of the
// frame through the Levinson-Durbin recursion. [Model.Coefficients] always
// holds a[0..p] in ascending lag order with a[0] = 1, so the synthesis filter
// divides by the spectrum of the coefficient vector and the analysis
// (residual) filter multiplies by it.
//
// Autocorrelation is mean-centred with linear lags and normalized so R[0] = 1.
// [Autocorrelate] evaluates it directly in O(N*p); [AutocorrelateFFT] uses the
// Wiener-Khinchin relation with zero padding and yields the same values up to
// rounding in O(N log N).
//
// [Predictor] bundles windowing, autocorrelation, white-noise correction and
// the recursion with preallocated scratch for use on a real-time thread.
package lpc
