// Package sessionstore persists capture sessions in SQLite and guards their
// lifecycle transitions.
//
// The evidence JSON files written per session remain the authoritative
// artifacts; the database is an index over them so the CLI can list, inspect,
// and clear past sessions without re-reading report directories. Sessions
// advance new -> baseline_captured -> post_captured -> verified_pass or
// verified_fail; verification outcomes are terminal and a failed verification
// is never retried automatically.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package sessionstore
