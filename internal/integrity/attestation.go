package integrity

import (
	"fmt"
	"strings"
	"time"
)

const attestationRule = "======================================================================"

// Markers embedded in attestation text so downstream tooling can grep for
// the outcome without parsing the prose.
const (
	AttestationPassMarker = "RESULT: [PASS] HASHES MATCH"
	AttestationFailMarker = "RESULT: [FAIL] HASHES DO NOT MATCH"
)

// Attestation renders a verdict as a formal statement covering the outcome,
// both digests, the record count, and on failure every violating record with
// the specific fields that changed. Pure string construction; persisting the
// statement is the caller's responsibility.
func Attestation(verdict Verdict) string {
	var b strings.Builder

	if verdict.Match {
		b.WriteString("FORENSIC INTEGRITY ATTESTATION\n")
	} else {
		b.WriteString("FORENSIC INTEGRITY VIOLATION\n")
	}
	b.WriteString(attestationRule + "\n\n")
	fmt.Fprintf(&b, "Verification Timestamp: %s\n", verdict.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "Total Files Examined: %d\n\n", verdict.RecordCount)
	b.WriteString("METADATA HASH VERIFICATION:\n")
	fmt.Fprintf(&b, "  Before Hash (SHA-256): %s\n", verdict.BeforeDigest)
	fmt.Fprintf(&b, "  After Hash (SHA-256):  %s\n\n", verdict.AfterDigest)

	if verdict.Match {
		b.WriteString(AttestationPassMarker + "\n\n")
		b.WriteString("ATTESTATION:\n")
		b.WriteString("Cryptographic hash verification confirms no modifications were made\n")
		b.WriteString("to file metadata during the documentation process. The SHA-256 hashes\n")
		b.WriteString("of all file metadata remained identical before and after capture.\n\n")
		b.WriteString("The critical forensic timestamps:\n")
		b.WriteString("  - Created Time\n")
		b.WriteString("  - Modified Time\n")
		b.WriteString("  - Viewed By Me Time (Last Opened)\n")
		b.WriteString("remained unaltered during evidence collection.\n")
	} else {
		b.WriteString(AttestationFailMarker + "\n\n")
		b.WriteString("WARNING: TIMESTAMP MODIFICATIONS DETECTED\n\n")
		if len(verdict.Violations) > 0 {
			b.WriteString("The following files had timestamp changes:\n")
			for _, violation := range verdict.Violations {
				name := violation.FileName
				if name == "" {
					name = violation.FileID
				}
				fmt.Fprintf(&b, "  - %s\n", name)
				for _, change := range violation.Changes {
					fmt.Fprintf(&b, "      %s: %q -> %q\n", change.Field, change.Before, change.After)
				}
			}
			b.WriteString("\n")
		}
		b.WriteString("The documentation process may have altered forensic evidence.\n")
		b.WriteString("Manual review and remediation required.\n")
	}

	b.WriteString("\n" + attestationRule + "\n")
	return b.String()
}
