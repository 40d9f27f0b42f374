// Package session runs one upload-to-download cycle of the channel swap tool.
//
// A Shell decodes the uploaded bitmap, swaps its green and blue channels,
// re-encodes the result and hands back a Result describing where the cycle
// ended. Every buffer lives inside the Result of a single Process call; the
// Shell itself only holds options and a logger.
package session
