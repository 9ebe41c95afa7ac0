// Package config loads, normalizes, and validates lettervoice configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes the voice
// host, probing, capture, playback, export, and logging knobs together with
// the dataset lists the operator records.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
