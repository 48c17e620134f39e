// Package capture orchestrates evidence capture sessions: resolve the
// requested file names against the source's candidates, snapshot metadata
// twice (baseline and post), verify integrity between the snapshots, and
// persist every artifact while tracking session state in the store.
//
// The orchestrator itself is I/O-free apart from evidence files and the
// session index; all network access lives behind the Source, Prompter, and
// Screenshotter boundaries so the workflow is testable with fakes.
package capture
