package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Record is one file's captured metadata at one point in time: an arbitrary
// JSON-serializable mapping with no enforced schema. The verifier only
// recognizes the critical timestamp fields by name; everything else is
// opaque canonicalizable data.
type Record map[string]any

// Critical timestamp fields compared per record. Keys are the Drive API
// field names; values are the short labels used in violation reports.
var criticalFields = [...]struct {
	key   string
	label string
}{
	{"createdTime", "created"},
	{"modifiedTime", "modified"},
	{"viewedByMeTime", "viewed"},
}

// Digest canonicalizes a value to key-sorted compact JSON and returns the
// lowercase hex SHA-256 of the encoding. Structurally identical values always
// produce identical digests: map key order is irrelevant, list order is not.
func Digest(value any) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("canonicalize metadata: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// DigestRecords digests an ordered snapshot. A nil slice digests as the
// empty list so baseline and post envelopes stay comparable.
func DigestRecords(records []Record) (string, error) {
	if records == nil {
		records = []Record{}
	}
	return Digest(records)
}

// RecordDigest fingerprints a single record by its identity and critical
// timestamps only, ignoring volatile fields like thumbnails or view links.
func RecordDigest(record Record) (string, error) {
	critical := map[string]any{
		"id":   record["id"],
		"name": record["name"],
	}
	for _, field := range criticalFields {
		critical[field.key] = record[field.key]
	}
	return Digest(critical)
}
