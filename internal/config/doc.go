// Package config loads, normalizes, and validates catalogsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OMDB_API_KEY and CATALOGSYNC_DATABASE_URL. The Config type centralizes every
// knob the server and CLI need, from the database backend to the bulk retry
// policy, so they are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
