package integrity

import "testing"

func sampleRecord(id, name, modified string) Record {
	return Record{
		"id":             id,
		"name":           name,
		"mimeType":       "application/vnd.google-apps.document",
		"createdTime":    "2024-10-01T09:00:00.000Z",
		"modifiedTime":   modified,
		"viewedByMeTime": "2024-10-20T14:30:00.000Z",
		"size":           "2048",
		"owners":         []any{map[string]any{"displayName": "R. Trindall"}},
	}
}

func TestDigestDeterministic(t *testing.T) {
	record := sampleRecord("f1", "Report", "2024-10-15T10:00:00.000Z")
	first, err := Digest(record)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Digest(record)
		if err != nil {
			t.Fatalf("Digest: %v", err)
		}
		if again != first {
			t.Fatalf("digest not deterministic: %s vs %s", again, first)
		}
	}
}

func TestDigestKeyOrderInsensitive(t *testing.T) {
	a := Record{"name": "Report", "id": "f1", "nested": map[string]any{"x": 1, "y": 2}}
	b := Record{"id": "f1", "nested": map[string]any{"y": 2, "x": 1}, "name": "Report"}
	da, err := Digest(a)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	db, err := Digest(b)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if da != db {
		t.Errorf("structurally identical records digested differently: %s vs %s", da, db)
	}
}

func TestDigestRecordsEmptyFixed(t *testing.T) {
	// sha256 of the canonical empty list "[]".
	const want = "4f53cda18c2baa0c0354bb5f9a3ecbe5ed12ab4d8e11ba873c2f11161202b945"
	for _, records := range [][]Record{nil, {}} {
		got, err := DigestRecords(records)
		if err != nil {
			t.Fatalf("DigestRecords: %v", err)
		}
		if got != want {
			t.Errorf("DigestRecords(empty) = %s, want %s", got, want)
		}
	}
}

func TestDigestRecordsOrderSensitive(t *testing.T) {
	a := sampleRecord("f1", "Report", "2024-10-15T10:00:00.000Z")
	b := sampleRecord("f2", "Resume", "2024-10-16T10:00:00.000Z")

	forward, err := DigestRecords([]Record{a, b})
	if err != nil {
		t.Fatalf("DigestRecords: %v", err)
	}
	reversed, err := DigestRecords([]Record{b, a})
	if err != nil {
		t.Fatalf("DigestRecords: %v", err)
	}
	if forward == reversed {
		t.Error("reordering a snapshot must change the digest")
	}
}

func TestDigestFixedLengthHex(t *testing.T) {
	got, err := Digest(sampleRecord("f1", "Report", "2024-10-15T10:00:00.000Z"))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if len(got) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(got))
	}
	for _, r := range got {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("digest contains non-lowercase-hex rune %q", r)
		}
	}
}

func TestRecordDigestIgnoresVolatileFields(t *testing.T) {
	a := sampleRecord("f1", "Report", "2024-10-15T10:00:00.000Z")
	b := sampleRecord("f1", "Report", "2024-10-15T10:00:00.000Z")
	b["thumbnailLink"] = "https://example.invalid/thumb?expiring=1"

	da, err := RecordDigest(a)
	if err != nil {
		t.Fatalf("RecordDigest: %v", err)
	}
	db, err := RecordDigest(b)
	if err != nil {
		t.Fatalf("RecordDigest: %v", err)
	}
	if da != db {
		t.Error("volatile fields must not affect the record digest")
	}

	c := sampleRecord("f1", "Report", "2024-10-16T08:00:00.000Z")
	dc, err := RecordDigest(c)
	if err != nil {
		t.Fatalf("RecordDigest: %v", err)
	}
	if dc == da {
		t.Error("changing a critical timestamp must change the record digest")
	}
}
