package bitmap

import (
	"fmt"
	"image"
	"image/color"

	"gbswap/internal/pixels"
)

// Color modes reported in Metadata.
const (
	ModeRGB     = "RGB"
	ModeRGBA    = "RGBA"
	ModePalette = "P"
	ModeGray    = "L"
	ModeBilevel = "1"
)

// FromImage lays img out as a Pixel Buffer and names its color mode.
//
// Palette images keep their indices in a single channel and grayscale images
// keep their luma, so both come out narrower than the swap accepts. Truecolor
// images become RGB, or RGBA when any pixel is not fully opaque.
func FromImage(img image.Image, bitsPerPixel int) (*pixels.Buffer, string, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, "", fmt.Errorf("%w: empty image %dx%d", ErrDecode, w, h)
	}

	switch src := img.(type) {
	case *image.Paletted:
		buf := mustBuffer(h, w, 1)
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(buf.Pix[y*w:(y+1)*w], src.Pix[off:off+w])
		}
		if bitsPerPixel == 1 {
			return buf, ModeBilevel, nil
		}
		return buf, ModePalette, nil
	case *image.Gray:
		buf := mustBuffer(h, w, 1)
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(buf.Pix[y*w:(y+1)*w], src.Pix[off:off+w])
		}
		return buf, ModeGray, nil
	case *image.RGBA:
		if src.Opaque() {
			return copyRGB(src.Pix[src.PixOffset(b.Min.X, b.Min.Y):], src.Stride, h, w), ModeRGB, nil
		}
	case *image.NRGBA:
		if src.Opaque() {
			return copyRGB(src.Pix[src.PixOffset(b.Min.X, b.Min.Y):], src.Stride, h, w), ModeRGB, nil
		}
		buf := mustBuffer(h, w, 4)
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(buf.Pix[y*w*4:(y+1)*w*4], src.Pix[off:off+w*4])
		}
		return buf, ModeRGBA, nil
	}

	// Anything else goes through the generic color model conversion.
	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nrgba.Set(x, y, color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return FromImage(nrgba, bitsPerPixel)
}

func copyRGB(pix []uint8, stride, h, w int) *pixels.Buffer {
	buf := mustBuffer(h, w, 3)
	dst := buf.Pix
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w*4]
		for x := 0; x < w; x++ {
			d := (y*w + x) * 3
			s := x * 4
			dst[d], dst[d+1], dst[d+2] = row[s], row[s+1], row[s+2]
		}
	}
	return buf
}

func mustBuffer(h, w, c int) *pixels.Buffer {
	buf, err := pixels.New(h, w, c)
	if err != nil {
		// FromImage rejects empty bounds before allocating.
		panic(err)
	}
	return buf
}

// ToImage builds an image.Image that shares no memory with buf.
func ToImage(buf *pixels.Buffer) (image.Image, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", pixels.ErrMalformedBuffer)
	}
	if _, err := pixels.FromSamples(buf.Height, buf.Width, buf.Channels, buf.Pix); err != nil {
		return nil, err
	}
	h, w := buf.Height, buf.Width
	rect := image.Rect(0, 0, w, h)

	switch buf.Channels {
	case 1:
		img := image.NewGray(rect)
		copy(img.Pix, buf.Pix)
		return img, nil
	case 3:
		img := image.NewRGBA(rect)
		for i, j := 0, 0; i < len(buf.Pix); i, j = i+3, j+4 {
			img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], 0xff
		}
		return img, nil
	case 4:
		img := image.NewNRGBA(rect)
		copy(img.Pix, buf.Pix)
		return img, nil
	default:
		return nil, fmt.Errorf("encode bitmap: %d-channel buffers have no BMP layout", buf.Channels)
	}
}
