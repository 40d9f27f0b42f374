package bitmap

import (
	"bytes"
	"fmt"
	"image"

	"github.com/dustin/go-humanize"
	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
)

// Preview encodes img as BMP for on-page display. Images wider than maxWidth
// are shrunk proportionally first; maxWidth <= 0 keeps the full size.
func Preview(img image.Image, maxWidth int) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("preview: nil image")
	}
	b := img.Bounds()
	if maxWidth > 0 && b.Dx() > maxWidth {
		img = resize.Thumbnail(uint(maxWidth), uint(b.Dy()), img, resize.Lanczos3)
	}
	var out bytes.Buffer
	if err := bmp.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	return out.Bytes(), nil
}

// SummaryLabels names the rows of a metadata summary.
type SummaryLabels struct {
	Dimensions   string `json:"dimensions"`
	Mode         string `json:"mode"`
	Format       string `json:"format"`
	BitsPerPixel string `json:"bits_per_pixel"`
	Channels     string `json:"channels"`
	FileSize     string `json:"file_size"`
}

// EnglishLabels are used by Summary.
var EnglishLabels = SummaryLabels{
	Dimensions:   "Dimensions",
	Mode:         "Mode",
	Format:       "Format",
	BitsPerPixel: "Bits per pixel",
	Channels:     "Channels",
	FileSize:     "File size",
}

// Summary renders the metadata as English label/value pairs in display order.
func (m Metadata) Summary() [][2]string {
	return m.SummaryWith(EnglishLabels)
}

// SummaryWith is Summary with caller-supplied labels.
func (m Metadata) SummaryWith(l SummaryLabels) [][2]string {
	rows := [][2]string{
		{l.Dimensions, fmt.Sprintf("%d × %d", m.Width, m.Height)},
		{l.Mode, m.Mode},
		{l.Format, m.Format},
	}
	if m.BitsPerPixel > 0 {
		rows = append(rows, [2]string{l.BitsPerPixel, fmt.Sprintf("%d", m.BitsPerPixel)})
	}
	rows = append(rows, [2]string{l.Channels, fmt.Sprintf("%d", m.Channels)})
	if m.SizeBytes > 0 {
		rows = append(rows, [2]string{l.FileSize, humanize.IBytes(uint64(m.SizeBytes))})
	}
	return rows
}
