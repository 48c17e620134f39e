// Package config loads, normalizes, and validates custody's TOML
// configuration.
//
// Configuration resolves from an explicit --config path, then
// ~/.config/custody/config.toml, then ./custody.toml, falling back to
// repository defaults when no file exists. All path fields are expanded
// (~ and relative segments) before use.
package config
