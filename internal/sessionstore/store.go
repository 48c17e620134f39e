package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"custody/internal/config"
)

// Store manages session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the session database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.EvidenceDir, "sessions.db"))
}

// OpenPath connects to a session database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

const sessionColumns = `id, query, status, file_count, baseline_digest, post_digest,
    verified, report_dir, error_message, created_at, updated_at`

// Create inserts a new session in the new state.
func (s *Store) Create(ctx context.Context, id, query, reportDir string) (*Session, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (id, query, status, report_dir, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		query,
		StatusNew,
		nullableString(reportDir),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a session by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// Update persists changes to an existing session, enforcing lifecycle
// transitions when the status changed.
func (s *Store) Update(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("session is nil")
	}
	if !session.Status.Valid() {
		return fmt.Errorf("invalid status %q", session.Status)
	}

	existing, err := s.GetByID(ctx, session.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("session %s not found", session.ID)
	}
	if existing.Status != session.Status && !CanTransition(existing.Status, session.Status) {
		return fmt.Errorf("invalid transition %s -> %s for session %s", existing.Status, session.Status, session.ID)
	}

	session.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE sessions
         SET query = ?, status = ?, file_count = ?, baseline_digest = ?,
             post_digest = ?, verified = ?, report_dir = ?, error_message = ?,
             updated_at = ?
         WHERE id = ?`,
		session.Query,
		session.Status,
		session.FileCount,
		nullableString(session.BaselineDigest),
		nullableString(session.PostDigest),
		nullableBool(session.Verified),
		nullableString(session.ReportDir),
		nullableString(session.ErrorMessage),
		session.UpdatedAt.Format(time.RFC3339Nano),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// List returns sessions newest-first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (?` + repeatPlaceholder(len(statuses)-1) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Delete removes a single session row.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Clear removes every session row and reports how many were deleted. The
// report files on disk are left untouched.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("clear sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		session        Session
		baselineDigest sql.NullString
		postDigest     sql.NullString
		verified       sql.NullBool
		reportDir      sql.NullString
		errorMessage   sql.NullString
		createdAt      string
		updatedAt      string
	)
	err := row.Scan(
		&session.ID,
		&session.Query,
		&session.Status,
		&session.FileCount,
		&baselineDigest,
		&postDigest,
		&verified,
		&reportDir,
		&errorMessage,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.BaselineDigest = baselineDigest.String
	session.PostDigest = postDigest.String
	if verified.Valid {
		value := verified.Bool
		session.Verified = &value
	}
	session.ReportDir = reportDir.String
	session.ErrorMessage = errorMessage.String
	session.CreatedAt = parseTimestamp(createdAt)
	session.UpdatedAt = parseTimestamp(updatedAt)
	return &session, nil
}

func parseTimestamp(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableBool(value *bool) any {
	if value == nil {
		return nil
	}
	return *value
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
