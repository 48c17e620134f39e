// Package drive provides the minimal Drive v3 API client used for evidence
// capture.
//
// It authenticates requests with a bearer token and exposes account details,
// file listing with query filters and pagination, per-file metadata, revision
// and comment history, and a read-only scope probe that attempts a write and
// expects it to be rejected. File metadata is kept as loosely typed maps so
// captures preserve every field the API returns. Options allow tests to supply
// custom HTTP clients without modifying production code.
package drive
