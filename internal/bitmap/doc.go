// Package bitmap converts between BMP files and pixel buffers.
//
// Decoding goes through golang.org/x/image/bmp only, so anything that is not a
// BMP file fails with ErrDecode. Buffers are laid out the way an array built
// from a Pillow image would be: palette and grayscale images keep one channel,
// truecolor images keep three, and images with real alpha keep four. Encoding
// is lossless for the layouts Decode produces.
package bitmap
