// Package vocoder implements LPC cross-synthesis: the spectral envelope of a
// voice signal is imposed on a carrier signal.
//
// Both signals are framed by a [frame.Engine]. On every hop the voice frame
// is reduced to an all-pole model by an [lpc.Predictor], the carrier frame is
// filtered through that model and power-matched to the windowed carrier, and
// the result is overlap-added into the output. The end-to-end latency is
// exactly the window size.
//
// A phase vocoder from package pitch is attached to every [Engine] so the
// voice can be pitch-shifted before cross-synthesis ([Engine.ShiftSignal],
// [Engine.Render]).
//
// Engines are single-threaded and do not allocate per sample. Stereo
// processing uses two independent engines, see [Stereo].
package vocoder
