package main

import (
	"context"
	"path/filepath"
	"testing"

	"custody/internal/sessionstore"
)

func seedSession(t *testing.T, env *cliTestEnv, id, query string) {
	t.Helper()
	store, err := sessionstore.OpenPath(filepath.Join(env.evidence, "sessions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	if _, err := store.Create(context.Background(), id, query, env.evidence); err != nil {
		t.Fatalf("create session: %v", err)
	}
}

func TestSessionsListEmpty(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, err := runCLI(t, env.configPath, "sessions", "list")
	if err != nil {
		t.Fatalf("sessions list: %v", err)
	}
	requireContains(t, out, "No sessions recorded")
}

func TestSessionsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t, "")
	seedSession(t, env, "abc123def456", "Quarterly Report")

	out, _, err := runCLI(t, env.configPath, "sessions", "list")
	if err != nil {
		t.Fatalf("sessions list: %v", err)
	}
	requireContains(t, out, "abc123def456")
	requireContains(t, out, "Quarterly Report")

	out, _, err = runCLI(t, env.configPath, "sessions", "show", "abc123def456")
	if err != nil {
		t.Fatalf("sessions show: %v", err)
	}
	requireContains(t, out, "Status:        new")
}

func TestSessionsListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t, "")

	if _, _, err := runCLI(t, env.configPath, "sessions", "list", "--status", "bogus"); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}

func TestSessionsShowMissing(t *testing.T) {
	env := setupCLITestEnv(t, "")

	if _, _, err := runCLI(t, env.configPath, "sessions", "show", "nope"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestSessionsDeleteAndClear(t *testing.T) {
	env := setupCLITestEnv(t, "")
	seedSession(t, env, "abc123def456", "Quarterly Report")
	seedSession(t, env, "fed654cba321", "Resume")

	out, _, err := runCLI(t, env.configPath, "sessions", "delete", "abc123def456")
	if err != nil {
		t.Fatalf("sessions delete: %v", err)
	}
	requireContains(t, out, "Deleted session abc123def456")

	out, _, err = runCLI(t, env.configPath, "sessions", "clear")
	if err != nil {
		t.Fatalf("sessions clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 session(s)")
}
