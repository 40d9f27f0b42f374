// Package main hosts the gbswap CLI entrypoint and command graph.
//
// `gbswap serve` runs the web upload tool. `gbswap swap` and `gbswap info`
// run the same decode and channel swap pipeline against local files, and
// `gbswap config` scaffolds and inspects the TOML configuration.
package main
