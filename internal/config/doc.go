// Package config loads, normalizes, and validates inlay configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides for the
// ffmpeg and ffprobe binaries (INLAY_FFMPEG, INLAY_FFPROBE). The Config type
// centralizes every knob the CLI and the composition pipeline need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
