package pixels

import (
	"errors"
	"fmt"
)

const (
	greenChannel = 1
	blueChannel  = 2

	// MinSwapChannels is the smallest channel count Swap accepts.
	MinSwapChannels = 3
)

// ErrUnsupportedLayout matches any ChannelError via errors.Is.
var ErrUnsupportedLayout = errors.New("unsupported channel layout")

// ChannelError reports a buffer whose channel count cannot be swapped.
type ChannelError struct {
	Channels int
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s: %d channel(s), need at least %d", ErrUnsupportedLayout, e.Channels, MinSwapChannels)
}

// Is lets errors.Is(err, ErrUnsupportedLayout) match.
func (e *ChannelError) Is(target error) bool {
	return target == ErrUnsupportedLayout
}

// Swap returns a new buffer with channels 1 and 2 exchanged in every pixel.
// Channel 0 and any channel from index 3 on (alpha) are copied unchanged.
// The input is never modified.
func Swap(src *Buffer) (*Buffer, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	if src.Channels < MinSwapChannels {
		return nil, &ChannelError{Channels: src.Channels}
	}

	out := src.Clone()
	step := out.Channels
	pix := out.Pix
	for i := 0; i < len(pix); i += step {
		pix[i+greenChannel], pix[i+blueChannel] = pix[i+blueChannel], pix[i+greenChannel]
	}
	return out, nil
}
