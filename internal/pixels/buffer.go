package pixels

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrMalformedBuffer reports a buffer whose sample slice disagrees with its shape.
var ErrMalformedBuffer = errors.New("malformed pixel buffer")

// Buffer is a decoded raster held as unsigned 8-bit samples in
// (height, width, channel) order.
type Buffer struct {
	Height   int
	Width    int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed buffer of the given shape.
func New(height, width, channels int) (*Buffer, error) {
	if height <= 0 || width <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: shape (%d, %d, %d)", ErrMalformedBuffer, height, width, channels)
	}
	return &Buffer{
		Height:   height,
		Width:    width,
		Channels: channels,
		Pix:      make([]uint8, height*width*channels),
	}, nil
}

// FromSamples wraps pix as a buffer after checking it matches the shape.
// The buffer takes ownership of pix.
func FromSamples(height, width, channels int, pix []uint8) (*Buffer, error) {
	b := &Buffer{Height: height, Width: width, Channels: channels, Pix: pix}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Buffer) validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrMalformedBuffer)
	}
	if b.Height <= 0 || b.Width <= 0 || b.Channels <= 0 {
		return fmt.Errorf("%w: shape (%d, %d, %d)", ErrMalformedBuffer, b.Height, b.Width, b.Channels)
	}
	if want := b.Height * b.Width * b.Channels; len(b.Pix) != want {
		return fmt.Errorf("%w: %d samples for shape (%d, %d, %d), want %d",
			ErrMalformedBuffer, len(b.Pix), b.Height, b.Width, b.Channels, want)
	}
	return nil
}

func (b *Buffer) offset(y, x, c int) int {
	return (y*b.Width+x)*b.Channels + c
}

// At returns the sample at row y, column x, channel c.
func (b *Buffer) At(y, x, c int) uint8 {
	return b.Pix[b.offset(y, x, c)]
}

// Set stores v at row y, column x, channel c.
func (b *Buffer) Set(y, x, c int, v uint8) {
	b.Pix[b.offset(y, x, c)] = v
}

// Pixel returns the samples of one pixel. The slice aliases the buffer.
func (b *Buffer) Pixel(y, x int) []uint8 {
	start := b.offset(y, x, 0)
	return b.Pix[start : start+b.Channels : start+b.Channels]
}

// Clone returns a deep copy with its own backing array.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Height: b.Height, Width: b.Width, Channels: b.Channels, Pix: pix}
}

// Equal reports whether both buffers have the same shape and samples.
func (b *Buffer) Equal(other *Buffer) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.Height == other.Height &&
		b.Width == other.Width &&
		b.Channels == other.Channels &&
		bytes.Equal(b.Pix, other.Pix)
}
