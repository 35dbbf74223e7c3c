// Package config loads, normalizes, and validates pullapod configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PODCASTINDEX_API_KEY and PODCASTINDEX_API_SECRET. Environment values that
// other packages care about (XDG_CONFIG_HOME, the home directory) are captured
// once here so storage code never reads process globals directly.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
