package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newFakeDriveServer(t *testing.T, files []map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files":
			json.NewEncoder(w).Encode(map[string]any{"files": files})
		case "/about":
			json.NewEncoder(w).Encode(map[string]any{
				"user": map[string]any{
					"displayName":  "Case Examiner",
					"emailAddress": "examiner@example.com",
					"permissionId": "123",
				},
				"storageQuota": map[string]any{"usage": "1024", "limit": "2048"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestResolveRanksAndSelects(t *testing.T) {
	server := newFakeDriveServer(t, []map[string]any{
		{"id": "f1", "name": "Quarterly Report", "modifiedTime": "2024-10-15T10:00:00Z"},
		{"id": "f2", "name": "Quarterly Report Draft", "modifiedTime": "2024-10-16T10:00:00Z"},
		{"id": "f3", "name": "Grocery List", "modifiedTime": "2024-10-01T10:00:00Z"},
	})
	env := setupCLITestEnv(t, server.URL)

	out, _, err := runCLI(t, env.configPath, "resolve", "Quarterly Report")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "Quarterly Report")
	requireContains(t, out, "f1")
	requireContains(t, out, "selects: Quarterly Report")
}

func TestResolveNewestStrategyUsesModifiedTime(t *testing.T) {
	server := newFakeDriveServer(t, []map[string]any{
		{"id": "f1", "name": "Report", "modifiedTime": "2024-10-15T10:00:00Z"},
		{"id": "f2", "name": "Report", "modifiedTime": "2024-10-20T10:00:00Z"},
	})
	env := setupCLITestEnv(t, server.URL)

	out, _, err := runCLI(t, env.configPath, "resolve", "Report", "--strategy", "newest")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "DUPLICATE FILES DETECTED")
	requireContains(t, out, `Strategy "newest" selects: Report`)
}

func TestResolveSendsDriveQuerySyntax(t *testing.T) {
	var received []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files" {
			http.NotFound(w, r)
			return
		}
		received = append(received, r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string]any{"files": []map[string]any{
			{"id": "f1", "name": "Report", "modifiedTime": "2024-10-15T10:00:00Z"},
			{"id": "f2", "name": "Report", "modifiedTime": "2024-10-20T10:00:00Z"},
		}})
	}))
	t.Cleanup(server.Close)
	env := setupCLITestEnv(t, server.URL)

	out, _, err := runCLI(t, env.configPath, "resolve", "Report [2]", "--strategy", "indexed")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("expected one list request, got %d", len(received))
	}
	// The API filter uses Drive query syntax with the index suffix stripped;
	// the index still drives local selection.
	if received[0] != "name contains 'Report'" {
		t.Fatalf("unexpected q parameter %q", received[0])
	}
	requireContains(t, out, "Selected by index #2")
}

func TestResolveAppliesDateRangeFilters(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.URL.Query().Get("q")
		json.NewEncoder(w).Encode(map[string]any{"files": []map[string]any{
			{"id": "f1", "name": "Report", "modifiedTime": "2024-10-15T10:00:00Z"},
		}})
	}))
	t.Cleanup(server.Close)
	env := setupCLITestEnv(t, server.URL)

	_, _, err := runCLI(t, env.configPath, "resolve", "Report",
		"--modified-after", "2024-10-01T00:00:00Z",
		"--modified-before", "2024-11-01T00:00:00Z")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := "name contains 'Report' and modifiedTime > '2024-10-01T00:00:00Z' and modifiedTime < '2024-11-01T00:00:00Z'"
	if received != want {
		t.Fatalf("q parameter = %q, want %q", received, want)
	}
}

func TestResolveNoMatches(t *testing.T) {
	server := newFakeDriveServer(t, []map[string]any{
		{"id": "f1", "name": "Grocery List"},
	})
	env := setupCLITestEnv(t, server.URL)

	out, _, err := runCLI(t, env.configPath, "resolve", "Quarterly Report")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "No files matched")
}

func TestResolveAskStrategyReportsPrompt(t *testing.T) {
	server := newFakeDriveServer(t, []map[string]any{
		{"id": "f1", "name": "Report"},
		{"id": "f2", "name": "Report"},
	})
	env := setupCLITestEnv(t, server.URL)

	out, _, err := runCLI(t, env.configPath, "resolve", "Report", "--strategy", "ask")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "interactive disambiguation")
}

func TestResolveRejectsUnknownStrategy(t *testing.T) {
	server := newFakeDriveServer(t, nil)
	env := setupCLITestEnv(t, server.URL)

	if _, _, err := runCLI(t, env.configPath, "resolve", "Report", "--strategy", "wat"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestAccountRendersUser(t *testing.T) {
	server := newFakeDriveServer(t, nil)
	env := setupCLITestEnv(t, server.URL)

	out, _, err := runCLI(t, env.configPath, "account")
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	requireContains(t, out, "Case Examiner")
	requireContains(t, out, "examiner@example.com")
}
