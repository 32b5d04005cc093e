package vocoder

import "fmt"

// ChannelMode selects how a stereo pair is routed through two engines.
type ChannelMode int

const (
	// ChannelLeftRight processes left and right independently.
	ChannelLeftRight ChannelMode = iota
	// ChannelMidSide processes the mid and side signals and converts back.
	ChannelMidSide
)

func (m ChannelMode) String() string {
	switch m {
	case ChannelLeftRight:
		return "left-right"
	case ChannelMidSide:
		return "mid-side"
	default:
		return fmt.Sprintf("ChannelMode(%d)", int(m))
	}
}

// MidSide converts a left/right pair to mid/side.
func MidSide(left, right float64) (mid, side float64) {
	return 0.5 * (left + right), 0.5 * (left - right)
}

// LeftRight converts a mid/side pair back to left/right.
func LeftRight(mid, side float64) (left, right float64) {
	return mid + side, mid - side
}

// Stereo runs two independent engines with identical configuration.
type Stereo struct {
	left  *Engine
	right *Engine
	mode  ChannelMode
}

// NewStereo creates a stereo engine from c.
func NewStereo(c Config, mode ChannelMode, opts ...Option) (*Stereo, error) {
	if mode != ChannelLeftRight && mode != ChannelMidSide {
		return nil, fmt.Errorf("vocoder: invalid channel mode: %v", mode)
	}

	left, err := New(c, opts...)
	if err != nil {
		return nil, err
	}

	right, err := New(c, opts...)
	if err != nil {
		return nil, err
	}

	return &Stereo{left: left, right: right, mode: mode}, nil
}

// Channels returns the two engines. In mid/side mode they process mid and
// side respectively.
func (s *Stereo) Channels() (*Engine, *Engine) { return s.left, s.right }

// Mode returns the channel routing.
func (s *Stereo) Mode() ChannelMode { return s.mode }

// LatencySamples returns the processing delay shared by both channels.
func (s *Stereo) LatencySamples() int { return s.left.LatencySamples() }

// ProcessSample processes one stereo frame.
func (s *Stereo) ProcessSample(carrierL, carrierR, voiceL, voiceR float64) (float64, float64) {
	if s.mode == ChannelMidSide {
		cm, cs := MidSide(carrierL, carrierR)
		vm, vs := MidSide(voiceL, voiceR)

		return LeftRight(s.left.ProcessSample(cm, vm), s.right.ProcessSample(cs, vs))
	}

	return s.left.ProcessSample(carrierL, voiceL), s.right.ProcessSample(carrierR, voiceR)
}

// ProcessBlock processes equal-length stereo blocks.
func (s *Stereo) ProcessBlock(dstL, dstR, carrierL, carrierR, voiceL, voiceR []float64) error {
	n := len(dstL)
	if len(dstR) != n || len(carrierL) != n || len(carrierR) != n || len(voiceL) != n || len(voiceR) != n {
		return fmt.Errorf("%w: stereo block lengths differ", ErrLengthMismatch)
	}

	for i := range n {
		dstL[i], dstR[i] = s.ProcessSample(carrierL[i], carrierR[i], voiceL[i], voiceR[i])
	}

	return nil
}

// Flush feeds silence into both channels and returns the next output
// frame. See [Engine.Flush].
func (s *Stereo) Flush() (float64, float64) {
	if s.mode == ChannelMidSide {
		return LeftRight(s.left.Flush(), s.right.Flush())
	}

	return s.left.Flush(), s.right.Flush()
}

// Reset clears both engines.
func (s *Stereo) Reset() {
	s.left.Reset()
	s.right.Reset()
}
