// Package frame turns a per-sample stream into overlapping analysis frames
// and recombines processed frames by overlap-add.
//
// An [Engine] owns one input ring per stream and a shared output ring, all
// of the window size N. Every Push writes the new samples at the current
// index and reads the output sample stored there, so the read and write
// cells coincide and the end-to-end delay is exactly N samples. After hop
// pushes the engine unrolls each input ring oldest-first into a frame,
// hands the frames to the [ProcessFunc], and accumulates the returned frame
// into the output ring starting at the current index. Output cells are
// zeroed as they are read, so stale energy never re-enters the stream.
package frame
