// Package config loads, normalizes, and validates gbswap configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the GBSWAP_API_TOKEN environment
// fallback. Human-readable sizes such as "32 MiB" are parsed once here so the
// server only ever sees byte counts.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
