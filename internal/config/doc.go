// Package config loads and validates application configuration from
// built-in defaults, an optional YAML file and SOLAR_* environment
// variables, and resolves the on-disk data directory layout.
package config
