// Package config loads, normalizes, and validates mediaq configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MEDIAQ_API_TOKEN and MEDIAQ_NTFY_TOPIC. The Config type centralizes every
// knob the daemon and CLI need, so the download directory, worker binary, and
// queue limits are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
