// Package services defines shared utilities consumed by the capture workflow
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, phase names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across Drive API and browser collaborators.
//
// Use these helpers when wiring new workflow logic so operational behaviour
// (error handling, observability, retries) stays uniform across the tool.
package services
