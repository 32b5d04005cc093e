// Package spectral applies LPC coefficient vectors to frames in the
// frequency domain.
//
// [Filter.ApplyAllPole] divides the spectrum of a frame by the spectrum of
// the zero-padded coefficient vector, realizing the synthesis filter 1/A(z)
// as a circular convolution over one frame. [Filter.ApplyConvolution]
// multiplies instead and yields the prediction residual. Both optionally
// taper the result with a synthesis window for overlap-add.
//
// [MatchPower] rescales a filtered frame to a reference energy and replaces
// fixed loudness constants in the cross-synthesis path.
package spectral
