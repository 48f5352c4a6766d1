// Package config loads, normalizes, and validates autounzip configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files (or YAML when the file extension says so), and
// runs struct-tag validation followed by cross-field checks. The Config type
// centralizes every knob the daemon and CLI need, and WatchSet provides the
// concurrency-safe folder list the watcher reads once per poll cycle.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
