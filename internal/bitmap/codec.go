package bitmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"gbswap/internal/pixels"
)

const (
	// Extension is the only accepted file suffix, compared case-insensitively.
	Extension = ".bmp"
	// MediaType is served for every encoded artifact.
	MediaType = "image/bmp"
	// FormatName is reported in metadata.
	FormatName = "BMP"

	// MaxPixels caps width × height before any pixel memory is allocated.
	MaxPixels = 89478485

	// BITMAPFILEHEADER (14 bytes) followed by the info header size and dimensions.
	pixOffsetAt = 10
	bppOffset   = 28

	fileHeaderLen = 14
	v4HeaderLen   = 108
	biBitfields   = 3
	// 'sRGB' as a little-endian LCS_sRGB color space tag.
	lcsSRGB = 0x73524742
)

// ErrDecode marks bytes that are not a readable BMP image.
var ErrDecode = errors.New("decode bitmap")

// Metadata describes the decoded original. It is informational only.
type Metadata struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Mode         string `json:"mode"`
	Format       string `json:"format"`
	BitsPerPixel int    `json:"bits_per_pixel,omitempty"`
	Channels     int    `json:"channels"`
	SizeBytes    int64  `json:"size_bytes"`
}

// Decoded bundles everything the decode step produces.
type Decoded struct {
	Image    image.Image
	Buffer   *pixels.Buffer
	Metadata Metadata
}

// HasBitmapExtension reports whether name ends in .bmp, ignoring case.
func HasBitmapExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(strings.TrimSpace(name)), Extension)
}

// Decode reads one BMP image. Only the BMP decoder is consulted; other
// formats fail with ErrDecode even when Go could otherwise read them.
func Decode(r io.Reader) (*Decoded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrDecode, err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode over an in-memory upload.
func DecodeBytes(data []byte) (*Decoded, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	cfg, err := bmp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	bpp := bitsPerPixel(data)
	if err := checkDimensions(cfg, bpp, len(data)-pixelOffset(data)); err != nil {
		return nil, err
	}

	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	buf, mode, err := FromImage(img, bpp)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	return &Decoded{
		Image:  img,
		Buffer: buf,
		Metadata: Metadata{
			Width:        bounds.Dx(),
			Height:       bounds.Dy(),
			Mode:         mode,
			Format:       FormatName,
			BitsPerPixel: bpp,
			Channels:     buf.Channels,
			SizeBytes:    int64(len(data)),
		},
	}, nil
}

// checkDimensions rejects headers that declare more pixels than MaxPixels or
// more pixel rows than the size bytes after the pixel offset can hold.
func checkDimensions(cfg image.Config, bpp, size int) error {
	w, h := int64(cfg.Width), int64(cfg.Height)
	if w*h > MaxPixels {
		return fmt.Errorf("%w: %d × %d exceeds the %d pixel limit", ErrDecode, cfg.Width, cfg.Height, MaxPixels)
	}
	if bpp <= 0 {
		return nil
	}
	stride := (w*int64(bpp) + 31) / 32 * 4
	if stride*h > int64(size) {
		return fmt.Errorf("%w: %d × %d at %d bits per pixel is truncated (%d pixel bytes)", ErrDecode, cfg.Width, cfg.Height, bpp, size)
	}
	return nil
}

func pixelOffset(data []byte) int {
	if len(data) < pixOffsetAt+4 {
		return 0
	}
	return int(binary.LittleEndian.Uint32(data[pixOffsetAt : pixOffsetAt+4]))
}

func bitsPerPixel(data []byte) int {
	if len(data) < bppOffset+2 {
		return 0
	}
	return int(binary.LittleEndian.Uint16(data[bppOffset : bppOffset+2]))
}

// Encode writes buf as a BMP file. Three channels become a 24-bit file, four
// channels a 32-bit BITMAPV4HEADER file with an alpha mask, one channel an
// 8-bit grayscale file.
func Encode(w io.Writer, buf *pixels.Buffer) error {
	if buf != nil && buf.Channels == 4 {
		if _, err := pixels.FromSamples(buf.Height, buf.Width, buf.Channels, buf.Pix); err != nil {
			return err
		}
		if err := encodeAlpha(w, buf); err != nil {
			return fmt.Errorf("encode bitmap: %w", err)
		}
		return nil
	}
	img, err := ToImage(buf)
	if err != nil {
		return err
	}
	if err := bmp.Encode(w, img); err != nil {
		return fmt.Errorf("encode bitmap: %w", err)
	}
	return nil
}

// EncodeBytes is Encode into a fresh byte slice.
func EncodeBytes(buf *pixels.Buffer) ([]byte, error) {
	var out bytes.Buffer
	if err := Encode(&out, buf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// encodeAlpha writes a bottom-up BGRA file behind a BITMAPV4HEADER. The
// encoder in x/image/bmp only emits BITMAPINFOHEADER, which readers treat
// as opaque.
func encodeAlpha(w io.Writer, buf *pixels.Buffer) error {
	stride := buf.Width * 4
	imageSize := stride * buf.Height
	offset := fileHeaderLen + v4HeaderLen

	hdr := make([]byte, offset)
	le := binary.LittleEndian
	hdr[0], hdr[1] = 'B', 'M'
	le.PutUint32(hdr[2:], uint32(offset+imageSize))
	le.PutUint32(hdr[10:], uint32(offset))
	le.PutUint32(hdr[14:], v4HeaderLen)
	le.PutUint32(hdr[18:], uint32(buf.Width))
	le.PutUint32(hdr[22:], uint32(buf.Height))
	le.PutUint16(hdr[26:], 1)
	le.PutUint16(hdr[28:], 32)
	le.PutUint32(hdr[30:], biBitfields)
	le.PutUint32(hdr[34:], uint32(imageSize))
	le.PutUint32(hdr[54:], 0x00ff0000)
	le.PutUint32(hdr[58:], 0x0000ff00)
	le.PutUint32(hdr[62:], 0x000000ff)
	le.PutUint32(hdr[66:], 0xff000000)
	le.PutUint32(hdr[70:], lcsSRGB)
	if _, err := w.Write(hdr); err != nil {
		return err
	}

	row := make([]byte, stride)
	for y := buf.Height - 1; y >= 0; y-- {
		src := buf.Pix[y*stride : (y+1)*stride]
		for i := 0; i < stride; i += 4 {
			row[i+0] = src[i+2]
			row[i+1] = src[i+1]
			row[i+2] = src[i+0]
			row[i+3] = src[i+3]
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
