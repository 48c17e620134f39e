package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"custody/internal/fileutil"
	"custody/internal/integrity"
)

// Snapshot is the JSON envelope for baseline and post capture files.
type Snapshot struct {
	SessionID    string             `json:"session_id"`
	CaptureTime  time.Time          `json:"capture_time"`
	TotalFiles   int                `json:"total_files"`
	BaselineHash string             `json:"baseline_hash_sha256,omitempty"`
	PostHash     string             `json:"post_hash_sha256,omitempty"`
	Files        []integrity.Record `json:"files"`
}

// Verification is the JSON envelope for the comparison outcome.
type Verification struct {
	SessionID    string            `json:"session_id"`
	BaselineHash string            `json:"baseline_hash"`
	PostHash     string            `json:"post_hash"`
	HashesMatch  bool              `json:"hashes_match"`
	Result       integrity.Verdict `json:"verification_result"`
}

// Writer persists session evidence files under one directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) (*Writer, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("evidence directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure evidence directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the evidence directory.
func (w *Writer) Dir() string { return w.dir }

// BaselinePath returns the baseline file path for the session.
func (w *Writer) BaselinePath(sessionID string) string {
	return filepath.Join(w.dir, fmt.Sprintf("session_%s_BASELINE.json", sessionID))
}

// PostPath returns the post-capture file path for the session.
func (w *Writer) PostPath(sessionID string) string {
	return filepath.Join(w.dir, fmt.Sprintf("session_%s_POST.json", sessionID))
}

// VerificationPath returns the verification file path for the session.
func (w *Writer) VerificationPath(sessionID string) string {
	return filepath.Join(w.dir, fmt.Sprintf("session_%s_VERIFICATION.json", sessionID))
}

// AttestationPath returns the attestation file path for the session.
func (w *Writer) AttestationPath(sessionID string) string {
	return filepath.Join(w.dir, fmt.Sprintf("session_%s_ATTESTATION.txt", sessionID))
}

// WriteBaseline persists the baseline snapshot and returns its path and
// whole-list digest.
func (w *Writer) WriteBaseline(sessionID string, records []integrity.Record) (string, string, error) {
	digest, err := integrity.DigestRecords(records)
	if err != nil {
		return "", "", fmt.Errorf("digest baseline: %w", err)
	}
	snapshot := Snapshot{
		SessionID:    sessionID,
		CaptureTime:  time.Now().UTC(),
		TotalFiles:   len(records),
		BaselineHash: digest,
		Files:        records,
	}
	path := w.BaselinePath(sessionID)
	if err := w.writeJSON(path, snapshot); err != nil {
		return "", "", err
	}
	return path, digest, nil
}

// WritePost persists the post-capture snapshot and returns its path and
// whole-list digest.
func (w *Writer) WritePost(sessionID string, records []integrity.Record) (string, string, error) {
	digest, err := integrity.DigestRecords(records)
	if err != nil {
		return "", "", fmt.Errorf("digest post-capture: %w", err)
	}
	snapshot := Snapshot{
		SessionID:   sessionID,
		CaptureTime: time.Now().UTC(),
		TotalFiles:  len(records),
		PostHash:    digest,
		Files:       records,
	}
	path := w.PostPath(sessionID)
	if err := w.writeJSON(path, snapshot); err != nil {
		return "", "", err
	}
	return path, digest, nil
}

// WriteVerification persists the verdict envelope plus the human-readable
// attestation and returns both paths.
func (w *Writer) WriteVerification(sessionID string, verdict integrity.Verdict) (string, string, error) {
	verification := Verification{
		SessionID:    sessionID,
		BaselineHash: verdict.BeforeDigest,
		PostHash:     verdict.AfterDigest,
		HashesMatch:  verdict.Match,
		Result:       verdict,
	}
	verificationPath := w.VerificationPath(sessionID)
	if err := w.writeJSON(verificationPath, verification); err != nil {
		return "", "", err
	}

	attestation := attestationWithHeader(sessionID, verdict)
	attestationPath := w.AttestationPath(sessionID)
	if err := fileutil.WriteAtomic(attestationPath, []byte(attestation), 0o644); err != nil {
		return "", "", fmt.Errorf("write attestation: %w", err)
	}
	return verificationPath, attestationPath, nil
}

// ReadSnapshot loads a snapshot envelope written by WriteBaseline or
// WritePost, for re-verification of existing evidence.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", filepath.Base(path), err)
	}
	return &snapshot, nil
}

// ReadVerification loads a verification envelope.
func ReadVerification(path string) (*Verification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read verification: %w", err)
	}
	var verification Verification
	if err := json.Unmarshal(data, &verification); err != nil {
		return nil, fmt.Errorf("decode verification %s: %w", filepath.Base(path), err)
	}
	return &verification, nil
}

func (w *Writer) writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := fileutil.WriteAtomic(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func attestationWithHeader(sessionID string, verdict integrity.Verdict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SESSION: %s\n\n", sessionID)
	b.WriteString("HASH COMPARISON:\n")
	fmt.Fprintf(&b, "  Baseline Hash: %s\n", verdict.BeforeDigest)
	fmt.Fprintf(&b, "  Post Hash:     %s\n", verdict.AfterDigest)
	fmt.Fprintf(&b, "  Match:         %t\n\n", verdict.Match)
	b.WriteString(integrity.Attestation(verdict))
	return b.String()
}
