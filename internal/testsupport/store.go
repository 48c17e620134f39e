package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"custody/internal/sessionstore"
)

// MustOpenStore opens a sessionstore.Store backed by a per-test database and
// registers cleanup.
func MustOpenStore(t testing.TB) *sessionstore.Store {
	t.Helper()

	store, err := sessionstore.OpenPath(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("sessionstore.OpenPath: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSession creates a session row for tests using the provided store.
func NewSession(t testing.TB, store *sessionstore.Store, id, query, reportDir string) *sessionstore.Session {
	t.Helper()

	session, err := store.Create(context.Background(), id, query, reportDir)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return session
}
