// Package integrity proves that a capture session did not alter the evidence
// it documented.
//
// A metadata snapshot is canonicalized to key-sorted JSON and hashed with
// SHA-256 to produce a deterministic digest. Comparing the baseline and post
// digests yields a pass/fail verdict; an independent per-record pass diffs the
// critical forensic timestamps (created, modified, viewed) and enumerates
// exactly which fields changed. Attestation renders the verdict as a formal
// text statement suitable for inclusion in an evidence package.
//
// List digests are order sensitive and the per-record diff pairs records
// strictly by position. Re-capturing the same records in a different order
// therefore fails verification even when no field changed; callers must
// snapshot baseline and post in the same order. This is the documented
// contract, not an accident.
package integrity
