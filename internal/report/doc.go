// Package report persists session evidence files: baseline and post-capture
// snapshots, the verification verdict, and the plain-text attestation. The
// JSON envelopes and file naming are stable because downstream review
// tooling pattern-matches on session_<id>_{BASELINE,POST,VERIFICATION,
// ATTESTATION} names. All writes are atomic.
package report
