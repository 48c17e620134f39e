package matching

import "testing"

func TestParseIndex(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantClean string
		wantIndex int
		wantOK    bool
	}{
		{"bracket", "Report [2]", "Report", 2, true},
		{"hash", "Report #3", "Report", 3, true},
		{"paren", "Report (1)", "Report", 1, true},
		{"no notation", "Report", "Report", 0, false},
		{"multi digit", "Untitled Document [12]", "Untitled Document", 12, true},
		{"whitespace before suffix", "Resume   #4", "Resume", 4, true},
		{"trailing whitespace", "Resume (2)  ", "Resume", 2, true},
		{"suffix mid-string ignored", "Report [2] final", "Report [2] final", 0, false},
		{"non-numeric ignored", "Report [two]", "Report [two]", 0, false},
		{"empty", "", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, index, ok := ParseIndex(tt.query)
			if clean != tt.wantClean || index != tt.wantIndex || ok != tt.wantOK {
				t.Errorf("ParseIndex(%q) = (%q, %d, %v), want (%q, %d, %v)",
					tt.query, clean, index, ok, tt.wantClean, tt.wantIndex, tt.wantOK)
			}
		})
	}
}

func TestParseIndexSingleStrip(t *testing.T) {
	// Only the trailing suffix is stripped, never recursively.
	clean, index, ok := ParseIndex("Report (1) [2]")
	if !ok || index != 2 {
		t.Fatalf("ParseIndex = (%q, %d, %v), want index 2", clean, index, ok)
	}
	if clean != "Report (1)" {
		t.Errorf("clean term = %q, want %q", clean, "Report (1)")
	}
}

func TestParseIndexOrderBracketFirst(t *testing.T) {
	// The bracket pattern is checked before hash and paren.
	clean, index, ok := ParseIndex("Invoice #2 [5]")
	if !ok || index != 5 || clean != "Invoice #2" {
		t.Errorf("ParseIndex = (%q, %d, %v), want (%q, 5, true)", clean, index, ok, "Invoice #2")
	}
}
