// Package config loads the front-end service configuration.
//
// Values are resolved in order: Baseline defaults, then an optional YAML or
// TOML file, then SDRFE_* environment variables. The result is validated
// before use.
package config
