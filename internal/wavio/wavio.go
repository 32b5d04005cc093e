// Package wavio reads and writes RIFF/WAVE files as float64 channels.
//
// Container parsing and writing go through go-audio/wav. Supported
// encodings are integer PCM with 8, 16, 24 or 32 bits and IEEE float with
// 32 bits, including WAVE_FORMAT_EXTENSIBLE headers.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE
)

var (
	// ErrNotWAV is returned for streams without a RIFF/WAVE header.
	ErrNotWAV = errors.New("wavio: not a RIFF/WAVE stream")

	// ErrUnsupported is returned for encodings this package cannot decode.
	ErrUnsupported = errors.New("wavio: unsupported encoding")
)

// Encoding selects the sample format written by Encode.
type Encoding int

const (
	// PCM16 writes 16-bit signed integers.
	PCM16 Encoding = iota
	// Float32 writes 32-bit IEEE floats.
	Float32
)

// Audio holds deinterleaved samples in [-1, 1].
type Audio struct {
	SampleRate int
	Channels   [][]float64
}

// Frames returns the number of samples per channel.
func (a *Audio) Frames() int {
	if len(a.Channels) == 0 {
		return 0
	}

	return len(a.Channels[0])
}

// Mono returns the average of all channels.
func (a *Audio) Mono() []float64 {
	n := a.Frames()
	out := make([]float64, n)

	if len(a.Channels) == 0 {
		return out
	}

	scale := 1 / float64(len(a.Channels))
	for _, ch := range a.Channels {
		for i, v := range ch {
			out[i] += v * scale
		}
	}

	return out
}

// Decode parses a WAVE stream.
func Decode(r io.ReadSeeker) (*Audio, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotWAV, err)
		}

		return nil, ErrNotWAV
	}

	tag := d.WavAudioFormat
	if tag == formatExtensible {
		sub, err := subFormat(r)
		if err != nil {
			return nil, err
		}

		if err := d.Rewind(); err != nil {
			return nil, fmt.Errorf("wavio: %w", err)
		}

		tag = sub
	}

	bits := int(d.BitDepth)

	switch {
	case tag == formatPCM && (bits == 8 || bits == 16 || bits == 24 || bits == 32):
	case tag == formatFloat && bits == 32:
	default:
		return nil, fmt.Errorf("%w: format %d with %d bits", ErrUnsupported, tag, bits)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavio: missing data chunk: %w", err)
	}

	if buf == nil {
		return nil, fmt.Errorf("wavio: missing data chunk")
	}

	return deinterleave(buf, tag == formatFloat), nil
}

// subFormat reads the format tag embedded in a WAVE_FORMAT_EXTENSIBLE
// sub-format GUID and leaves r at the start of the stream.
func subFormat(r io.ReadSeeker) (uint16, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("wavio: %w", err)
	}

	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotWAV, err)
	}

	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, fmt.Errorf("wavio: fmt chunk: %w", err)
		}

		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}

		if ch.Size < extensibleHeaderSize {
			return 0, fmt.Errorf("%w: short extensible header", ErrUnsupported)
		}

		var h extensibleHeader
		if err := ch.ReadLE(&h); err != nil {
			return 0, fmt.Errorf("wavio: fmt chunk: %w", err)
		}

		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return 0, fmt.Errorf("wavio: %w", err)
		}

		return h.SubFormat, nil
	}
}

// extensibleHeader is the fmt chunk prefix up to the first two bytes of
// the sub-format GUID, which hold the plain format tag.
type extensibleHeader struct {
	Tag           uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	ExtensionSize uint16
	ValidBits     uint16
	ChannelMask   uint32
	SubFormat     uint16
}

const extensibleHeaderSize = 26

func deinterleave(buf *audio.IntBuffer, float bool) *Audio {
	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels

	a := &Audio{SampleRate: buf.Format.SampleRate, Channels: make([][]float64, channels)}
	for c := range a.Channels {
		a.Channels[c] = make([]float64, frames)
	}

	bits := buf.SourceBitDepth
	scale := 1 / float64(int64(1)<<(bits-1))

	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			v := buf.Data[i*channels+c]

			switch {
			case float:
				a.Channels[c][i] = float64(math.Float32frombits(uint32(int32(v))))
			case bits == 8:
				// 8-bit PCM is unsigned.
				a.Channels[c][i] = float64(v-128) * scale
			default:
				a.Channels[c][i] = float64(v) * scale
			}
		}
	}

	return a
}

// Quantizer converts a float sample to a signed 16-bit integer value.
type Quantizer interface {
	ProcessInteger(x float64) int
}

// EncodeOption configures [Encode].
type EncodeOption func(*encodeConfig)

type encodeConfig struct {
	quantizer Quantizer
}

// WithQuantizer routes PCM16 samples through q, typically a ditherer.
// It has no effect on Float32 output.
func WithQuantizer(q Quantizer) EncodeOption {
	return func(cfg *encodeConfig) { cfg.quantizer = q }
}

// Encode writes a as a WAVE stream. Samples outside [-1, 1] are clipped
// for PCM16.
func Encode(w io.WriteSeeker, a *Audio, enc Encoding, opts ...EncodeOption) error {
	var cfg encodeConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	channels := len(a.Channels)
	if channels == 0 {
		return fmt.Errorf("wavio: no channels")
	}

	if a.SampleRate < 1 {
		return fmt.Errorf("wavio: invalid sample rate %d", a.SampleRate)
	}

	frames := a.Frames()
	for _, ch := range a.Channels {
		if len(ch) != frames {
			return fmt.Errorf("wavio: channel lengths differ")
		}
	}

	tag, bits := formatPCM, 16
	if enc == Float32 {
		tag, bits = formatFloat, 32
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: a.SampleRate},
		Data:           make([]int, frames*channels),
		SourceBitDepth: bits,
	}

	for i := 0; i < frames; i++ {
		for c, ch := range a.Channels {
			v := ch[i]
			if enc == Float32 {
				// The encoder writes 32-bit samples as int32; carry the float bits through.
				buf.Data[i*channels+c] = int(int32(math.Float32bits(float32(v))))
			} else {
				buf.Data[i*channels+c] = int(pcm16(v, cfg.quantizer))
			}
		}
	}

	e := wav.NewEncoder(w, a.SampleRate, bits, channels, tag)
	if err := e.Write(buf); err != nil {
		return fmt.Errorf("wavio: %w", err)
	}

	if err := e.Close(); err != nil {
		return fmt.Errorf("wavio: %w", err)
	}

	return nil
}

func pcm16(v float64, q Quantizer) int16 {
	if q != nil {
		return int16(max(-32768, min(32767, q.ProcessInteger(v))))
	}

	v = math.Max(-1, math.Min(1, v))

	return int16(math.Round(v * 32767))
}

// ReadFile decodes the WAVE file at path.
func ReadFile(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return a, nil
}

// WriteFile encodes a to path.
func WriteFile(path string, a *Audio, enc Encoding, opts ...EncodeOption) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Encode(f, a, enc, opts...); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}

	return f.Close()
}

// ParseEncoding maps "pcm16" or "float32" to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "", "pcm16", "16":
		return PCM16, nil
	case "float32", "f32", "float":
		return Float32, nil
	default:
		return PCM16, fmt.Errorf("wavio: unknown encoding %q", s)
	}
}
