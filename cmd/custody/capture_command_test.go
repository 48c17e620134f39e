package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newCaptureDriveServer serves the full capture surface: list, get,
// revisions, and comments.
func newCaptureDriveServer(t *testing.T, files []map[string]any) *httptest.Server {
	t.Helper()
	byID := make(map[string]map[string]any, len(files))
	for _, file := range files {
		byID[file["id"].(string)] = file
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/files" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{"files": files})
		case strings.HasSuffix(r.URL.Path, "/revisions"):
			json.NewEncoder(w).Encode(map[string]any{"revisions": []any{map[string]any{"id": "r1"}}})
		case strings.HasSuffix(r.URL.Path, "/comments"):
			json.NewEncoder(w).Encode(map[string]any{"comments": []any{}})
		case strings.HasPrefix(r.URL.Path, "/files/"):
			id := strings.TrimPrefix(r.URL.Path, "/files/")
			file, ok := byID[id]
			if !ok {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(file)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCaptureEndToEndPass(t *testing.T) {
	server := newCaptureDriveServer(t, []map[string]any{
		{"id": "f1", "name": "Quarterly Report", "modifiedTime": "2024-10-15T10:00:00Z"},
	})
	env := setupCLITestEnv(t, server.URL)

	out, _, err := runCLI(t, env.configPath, "capture", "Quarterly Report")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	requireContains(t, out, "VERIFICATION PASSED")
	requireContains(t, out, "verified_pass")

	entries, err := os.ReadDir(env.evidence)
	if err != nil {
		t.Fatalf("read evidence dir: %v", err)
	}
	var sawAttestation bool
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), "_ATTESTATION.txt") {
			sawAttestation = true
		}
	}
	if !sawAttestation {
		t.Fatal("expected an attestation file in the evidence directory")
	}
}

func TestCaptureJSONOutcome(t *testing.T) {
	server := newCaptureDriveServer(t, []map[string]any{
		{"id": "f1", "name": "Resume", "modifiedTime": "2024-10-16T10:00:00Z"},
	})
	env := setupCLITestEnv(t, server.URL)

	out, _, err := runCLI(t, env.configPath, "capture", "Resume", "--json")
	if err != nil {
		t.Fatalf("capture --json: %v", err)
	}

	var outcome struct {
		Status   string `json:"status"`
		Resolved []struct {
			Name string `json:"name"`
		} `json:"resolved"`
		BaselinePath string `json:"baseline_path"`
	}
	if err := json.Unmarshal([]byte(out), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.Status != "verified_pass" {
		t.Fatalf("status = %q, want verified_pass", outcome.Status)
	}
	if len(outcome.Resolved) != 1 || outcome.Resolved[0].Name != "Resume" {
		t.Fatalf("unexpected resolution: %+v", outcome.Resolved)
	}
	if filepath.Dir(outcome.BaselinePath) != env.evidence {
		t.Fatalf("baseline written outside evidence dir: %s", outcome.BaselinePath)
	}
}

func TestCaptureResolvesBeyondMatchResultLimit(t *testing.T) {
	// Candidate enumeration must page through the whole drive, not stop at
	// the match-result display cap. The target sits past the first ten files.
	names := []string{
		"Alpha Notes", "Beta Memo", "Gamma Draft", "Delta Summary",
		"Epsilon Plan", "Zeta Outline", "Eta Minutes", "Theta Agenda",
		"Iota Brief", "Kappa Digest", "Lambda Log", "Quarterly Ledger",
		"Mu Archive", "Nu Index", "Xi Roster",
	}
	files := make([]map[string]any, 0, len(names))
	for i, name := range names {
		files = append(files, map[string]any{
			"id":           fmt.Sprintf("f%02d", i+1),
			"name":         name,
			"modifiedTime": "2024-10-15T10:00:00Z",
		})
	}
	server := newCaptureDriveServer(t, files)
	env := setupCLITestEnv(t, server.URL)

	out, _, err := runCLI(t, env.configPath, "capture", "Quarterly Ledger")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	requireContains(t, out, "Quarterly Ledger")
	requireContains(t, out, "verified_pass")
}

func TestCaptureNoMatchFails(t *testing.T) {
	server := newCaptureDriveServer(t, []map[string]any{
		{"id": "f1", "name": "Grocery List"},
	})
	env := setupCLITestEnv(t, server.URL)

	if _, _, err := runCLI(t, env.configPath, "capture", "Quarterly Report"); err == nil {
		t.Fatal("expected capture to fail when nothing matches")
	}
}
