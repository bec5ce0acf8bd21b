// Package config loads, normalizes, and validates dupfind configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. Unlike most tools, dupfind never looks for
// a configuration file on its own: a file is only read when the caller names
// one, so a bare invocation behaves the same on every machine.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
