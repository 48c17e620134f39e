package integrity

import (
	"strings"
	"testing"
)

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, record := range records {
		copied := make(Record, len(record))
		for k, v := range record {
			copied[k] = v
		}
		out[i] = copied
	}
	return out
}

func snapshot() []Record {
	return []Record{
		sampleRecord("f1", "Quarterly Report", "2024-10-15T10:00:00.000Z"),
		sampleRecord("f2", "Resume", "2024-10-16T10:00:00.000Z"),
	}
}

func TestCompareIdentical(t *testing.T) {
	records := snapshot()
	verdict, err := Compare(records, records)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !verdict.Match {
		t.Error("identical snapshots must match")
	}
	if len(verdict.Violations) != 0 {
		t.Errorf("got %d violations, want 0", len(verdict.Violations))
	}
	if verdict.BeforeDigest != verdict.AfterDigest {
		t.Error("digests must be equal for identical snapshots")
	}
	if verdict.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", verdict.RecordCount)
	}
}

func TestCompareModifiedTimestamp(t *testing.T) {
	before := snapshot()
	after := cloneRecords(before)
	after[1]["modifiedTime"] = "2024-10-17T08:00:00.000Z"

	verdict, err := Compare(before, after)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if verdict.Match {
		t.Error("changed timestamp must fail the digest comparison")
	}
	if len(verdict.Violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(verdict.Violations))
	}
	violation := verdict.Violations[0]
	if violation.FileID != "f2" || violation.FileName != "Resume" {
		t.Errorf("violation identity = (%s, %s), want (f2, Resume)", violation.FileID, violation.FileName)
	}
	if len(violation.Changes) != 1 {
		t.Fatalf("got %d field changes, want 1", len(violation.Changes))
	}
	change := violation.Changes[0]
	if change.Field != "modified" {
		t.Errorf("changed field = %q, want modified", change.Field)
	}
	if change.Before != "2024-10-16T10:00:00.000Z" || change.After != "2024-10-17T08:00:00.000Z" {
		t.Errorf("change values = %q -> %q", change.Before, change.After)
	}
}

func TestCompareAllCriticalFields(t *testing.T) {
	before := snapshot()
	after := cloneRecords(before)
	after[0]["createdTime"] = "2024-10-02T09:00:00.000Z"
	after[0]["viewedByMeTime"] = "2024-10-30T14:30:00.000Z"

	verdict, err := Compare(before, after)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(verdict.Violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(verdict.Violations))
	}
	fields := make([]string, 0, 2)
	for _, change := range verdict.Violations[0].Changes {
		fields = append(fields, change.Field)
	}
	want := []string{"created", "viewed"}
	if len(fields) != len(want) || fields[0] != want[0] || fields[1] != want[1] {
		t.Errorf("changed fields = %v, want %v", fields, want)
	}
}

func TestCompareNonCriticalChangeDigestOnly(t *testing.T) {
	// A non-timestamp field change fails the digest but produces no
	// per-record timestamp violation.
	before := snapshot()
	after := cloneRecords(before)
	after[0]["size"] = "4096"

	verdict, err := Compare(before, after)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if verdict.Match {
		t.Error("digest must notice any structural change")
	}
	if len(verdict.Violations) != 0 {
		t.Errorf("got %d violations, want 0", len(verdict.Violations))
	}
}

func TestCompareReorderedSnapshots(t *testing.T) {
	before := snapshot()
	after := []Record{before[1], before[0]}

	verdict, err := Compare(before, after)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	// Whole-list digests are order sensitive; pairing is positional. Same
	// records in a different order fail verification even though no field
	// changed on any file.
	if verdict.Match {
		t.Error("reordered snapshot must fail the digest comparison")
	}
	if len(verdict.Violations) == 0 {
		t.Error("positional pairing should report the misaligned records")
	}
}

func TestCompareLengthMismatch(t *testing.T) {
	before := snapshot()
	after := before[:1]

	verdict, err := Compare(before, after)
	if err != nil {
		t.Fatalf("Compare must not fail on length mismatch: %v", err)
	}
	if verdict.Match {
		t.Error("shorter post snapshot must fail the digest comparison")
	}
	if verdict.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want baseline count 2", verdict.RecordCount)
	}
}

func TestCompareMalformedFieldsDegrade(t *testing.T) {
	before := []Record{{"id": "f1", "name": "Report", "modifiedTime": 12345}}
	after := []Record{{"id": "f1", "name": "Report", "modifiedTime": 12345}}

	verdict, err := Compare(before, after)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !verdict.Match || len(verdict.Violations) != 0 {
		t.Errorf("non-string timestamps must be treated as absent: %+v", verdict)
	}
}

func TestAttestationRoundTrip(t *testing.T) {
	records := snapshot()

	pass, err := Compare(records, records)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	passText := Attestation(pass)
	if !strings.Contains(passText, AttestationPassMarker) {
		t.Error("passing attestation missing pass marker")
	}
	if !strings.Contains(passText, pass.BeforeDigest) {
		t.Error("attestation must include the digests")
	}

	after := cloneRecords(records)
	after[0]["modifiedTime"] = "2024-11-01T00:00:00.000Z"
	after[1]["viewedByMeTime"] = "2024-11-02T00:00:00.000Z"
	fail, err := Compare(records, after)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	failText := Attestation(fail)
	if !strings.Contains(failText, AttestationFailMarker) {
		t.Error("failing attestation missing fail marker")
	}
	for _, fragment := range []string{"Quarterly Report", "Resume", "modified", "viewed"} {
		if !strings.Contains(failText, fragment) {
			t.Errorf("failing attestation missing %q", fragment)
		}
	}
}
