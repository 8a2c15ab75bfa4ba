// Package config loads, normalizes, and validates wavsh configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WAVSH_ARTIFACT and WAVSH_PLAYER. The Config type also derives the fixed
// locations the shell relies on: the working artifact, the backup directory,
// the persisted stacks file, the journal and the lock file.
//
// Always obtain settings through this package so downstream code receives
// absolute paths and clear validation errors.
package config
