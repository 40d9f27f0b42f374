package testsupport

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

// BMP encodes img as a BMP file.
func BMP(t testing.TB, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	return buf.Bytes()
}

// WriteBMP encodes img into dir/name and returns the full path.
func WriteBMP(t testing.TB, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, BMP(t, img), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// HeaderOnlyBMP returns the 54-byte header of a 24-bit BMP that declares
// w × h pixels but carries no pixel rows.
func HeaderOnlyBMP(t testing.TB, w, h int) []byte {
	t.Helper()

	hdr := make([]byte, 54)
	copy(hdr, BMP(t, Gradient(1, 1)))
	binary.LittleEndian.PutUint32(hdr[18:22], uint32(w))
	binary.LittleEndian.PutUint32(hdr[22:26], uint32(h))
	return hdr
}

// TwoByTwo is the reference image: pixel (0,0) is R=10 G=20 B=30 and the
// remaining pixels are distinct opaque colors.
func TwoByTwo() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 0xff})
	img.SetRGBA(1, 0, color.RGBA{R: 0, G: 255, B: 0, A: 0xff})
	img.SetRGBA(0, 1, color.RGBA{R: 0, G: 0, B: 255, A: 0xff})
	img.SetRGBA(1, 1, color.RGBA{R: 200, G: 100, B: 50, A: 0xff})
	return img
}

// Gradient returns an opaque w×h image whose channels all vary by position.
func Gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 7),
				G: uint8(y * 13),
				B: uint8(x*3 + y*5),
				A: 0xff,
			})
		}
	}
	return img
}

// Grayscale returns a w×h grayscale image, which BMP stores as 8-bit palette data.
func Grayscale(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 11)
	}
	return img
}
