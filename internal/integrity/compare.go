package integrity

import (
	"fmt"
	"time"
)

// FieldChange records one critical timestamp that differs between captures.
type FieldChange struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Violation identifies a record whose critical timestamps changed.
type Violation struct {
	FileID   string        `json:"file_id"`
	FileName string        `json:"file_name"`
	Changes  []FieldChange `json:"changes"`
}

// Verdict is the outcome of comparing a baseline snapshot against a post
// snapshot.
type Verdict struct {
	Timestamp    time.Time   `json:"timestamp"`
	BeforeDigest string      `json:"before_hash"`
	AfterDigest  string      `json:"after_hash"`
	Match        bool        `json:"match"`
	RecordCount  int         `json:"total_files"`
	Violations   []Violation `json:"violations,omitempty"`
}

// Compare digests both snapshots and diffs the critical timestamp fields
// record by record. The whole-list digests decide Match; the per-record pass
// is computed independently so a failing verdict names exactly which files
// and fields changed.
//
// Records are paired strictly by position. When the snapshots differ in
// length, the per-record pass covers the shorter prefix and the digest
// mismatch carries the signal; this is a documented limitation rather than an
// error.
func Compare(before, after []Record) (Verdict, error) {
	beforeDigest, err := DigestRecords(before)
	if err != nil {
		return Verdict{}, fmt.Errorf("digest baseline: %w", err)
	}
	afterDigest, err := DigestRecords(after)
	if err != nil {
		return Verdict{}, fmt.Errorf("digest post-capture: %w", err)
	}

	verdict := Verdict{
		Timestamp:    time.Now().UTC(),
		BeforeDigest: beforeDigest,
		AfterDigest:  afterDigest,
		Match:        beforeDigest == afterDigest,
		RecordCount:  len(before),
	}

	pairs := len(before)
	if len(after) < pairs {
		pairs = len(after)
	}
	for i := 0; i < pairs; i++ {
		if violation, changed := diffRecord(before[i], after[i]); changed {
			verdict.Violations = append(verdict.Violations, violation)
		}
	}
	return verdict, nil
}

func diffRecord(before, after Record) (Violation, bool) {
	var changes []FieldChange
	for _, field := range criticalFields {
		oldValue := stringField(before, field.key)
		newValue := stringField(after, field.key)
		if oldValue != newValue {
			changes = append(changes, FieldChange{Field: field.label, Before: oldValue, After: newValue})
		}
	}
	if len(changes) == 0 {
		return Violation{}, false
	}
	return Violation{
		FileID:   stringField(before, "id"),
		FileName: stringField(before, "name"),
		Changes:  changes,
	}, true
}

// stringField reads a field as a string, treating missing or non-string
// values as absent so noisy collaborator data never aborts a comparison.
func stringField(record Record, key string) string {
	if record == nil {
		return ""
	}
	if value, ok := record[key].(string); ok {
		return value
	}
	return ""
}
