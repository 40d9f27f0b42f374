// Package pixels holds the in-memory Pixel Buffer and the green/blue channel
// swap applied to it.
//
// Everything here is pure: Swap never mutates its input and always returns a
// buffer with its own backing array, so callers may run it from any number of
// goroutines without coordination.
package pixels
