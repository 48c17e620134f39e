package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"custody/internal/config"
	"custody/internal/fileutil"
	"custody/internal/integrity"
	"custody/internal/logging"
	"custody/internal/matching"
	"custody/internal/report"
	"custody/internal/services"
	"custody/internal/sessionstore"
)

// Source supplies metadata snapshots for a set of file handles. A handle is
// whatever the source needs to re-locate a file: an API file ID or a UI file
// name.
type Source interface {
	Snapshot(ctx context.Context, handles []string) ([]integrity.Record, error)
}

// Lister is implemented by sources that can enumerate candidate files, which
// enables fuzzy name resolution. Sources without it (the UI scrape path)
// receive the query names verbatim.
type Lister interface {
	Candidates(ctx context.Context) ([]matching.Candidate, []map[string]any, error)
}

// Prompter resolves ambiguous matches interactively. It is only consulted
// when the configured strategy yields no selection.
type Prompter interface {
	Choose(ctx context.Context, query string, result matching.Result) (matching.Selection, error)
}

// Screenshotter captures corroborating screenshots for selected files.
type Screenshotter interface {
	ScreenshotFile(ctx context.Context, fileName string) (string, error)
}

// ResolvedFile records how one query was resolved to a file.
type ResolvedFile struct {
	Query  string  `json:"query"`
	Name   string  `json:"name"`
	Handle string  `json:"handle"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Outcome summarizes a completed capture session.
type Outcome struct {
	SessionID        string            `json:"session_id"`
	Status           string            `json:"status"`
	Resolved         []ResolvedFile    `json:"resolved"`
	BaselinePath     string            `json:"baseline_path"`
	PostPath         string            `json:"post_path"`
	VerificationPath string            `json:"verification_path"`
	AttestationPath  string            `json:"attestation_path"`
	HistoryGaps      []string          `json:"history_gaps,omitempty"`
	Screenshots      []string          `json:"screenshots,omitempty"`
	Verdict          integrity.Verdict `json:"verdict"`
}

// Runner executes the full evidence capture workflow for one session.
type Runner struct {
	cfg      *config.Config
	store    *sessionstore.Store
	source   Source
	writer   *report.Writer
	prompter Prompter
	shooter  Screenshotter
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithPrompter installs the interactive disambiguation boundary.
func WithPrompter(p Prompter) Option {
	return func(r *Runner) { r.prompter = p }
}

// WithScreenshotter enables screenshot evidence for selected files.
func WithScreenshotter(s Screenshotter) Option {
	return func(r *Runner) { r.shooter = s }
}

// NewRunner assembles the capture workflow.
func NewRunner(cfg *config.Config, store *sessionstore.Store, source Source, writer *report.Writer, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if store == nil {
		return nil, errors.New("session store required")
	}
	if source == nil {
		return nil, errors.New("metadata source required")
	}
	if writer == nil {
		return nil, errors.New("report writer required")
	}
	r := &Runner{
		cfg:    cfg,
		store:  store,
		source: source,
		writer: writer,
		logger: logging.NewComponentLogger(logger, "capture"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run captures baseline and post snapshots for the files the queries resolve
// to, verifies integrity between them, and persists every evidence artifact.
// The evidence directory is locked for the duration so concurrent sessions
// cannot interleave their files.
func (r *Runner) Run(ctx context.Context, queries []string) (*Outcome, error) {
	if len(queries) == 0 {
		return nil, services.Wrap(services.ErrValidation, "capture", "run", "at least one file query required", nil)
	}

	lock := flock.New(filepath.Join(r.writer.Dir(), ".custody.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "capture", "lock evidence dir", r.writer.Dir(), err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "capture", "lock evidence dir",
			"another session holds the evidence directory", nil)
	}
	defer lock.Unlock() //nolint:errcheck

	sessionID := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	session, err := r.store.Create(ctx, sessionID, strings.Join(queries, "; "), r.writer.Dir())
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	ctx = services.WithSessionID(ctx, sessionID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("capture session started", logging.Int("queries", len(queries)))

	outcome, err := r.run(ctx, logger, session, queries)
	if err != nil {
		r.markFailed(ctx, session, err)
		return nil, err
	}
	return outcome, nil
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, session *sessionstore.Session, queries []string) (*Outcome, error) {
	resolved, err := r.resolve(ctx, logger, queries)
	if err != nil {
		return nil, err
	}

	handles := make([]string, len(resolved))
	names := make([]string, len(resolved))
	for i, file := range resolved {
		handles[i] = file.Handle
		names[i] = file.Name
	}

	outcome := &Outcome{SessionID: session.ID, Resolved: resolved}

	// Baseline phase.
	phaseCtx := services.WithPhase(ctx, "baseline")
	baseline, err := r.source.Snapshot(phaseCtx, handles)
	if err != nil {
		return nil, services.Wrap(nil, "baseline", "snapshot", "capture metadata", err)
	}
	baselinePath, baselineDigest, err := r.writer.WriteBaseline(session.ID, baseline)
	if err != nil {
		return nil, services.Wrap(nil, "baseline", "persist", "write snapshot", err)
	}
	outcome.BaselinePath = baselinePath

	session.Status = sessionstore.StatusBaselineCaptured
	session.FileCount = len(baseline)
	session.BaselineDigest = baselineDigest
	if err := r.store.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("record baseline status: %w", err)
	}
	logging.WithContext(phaseCtx, r.logger).Info("baseline captured",
		logging.Int("files", len(baseline)),
		logging.String("digest", baselineDigest))

	// Files without queryable revision history have no API trail to fall
	// back on, so those are the ones worth photographing.
	outcome.HistoryGaps = historyGaps(names, baseline)
	if len(outcome.HistoryGaps) > 0 {
		logger.Warn("files lack queryable revision history",
			logging.Int("files", len(outcome.HistoryGaps)))
	}
	if r.shooter != nil && r.cfg.Capture.Screenshots && len(outcome.HistoryGaps) > 0 {
		outcome.Screenshots = r.captureScreenshots(ctx, logger, session.ID, outcome.HistoryGaps)
	}

	// Post-capture phase, same handles in the same order. Reordering would
	// break both the whole-list digest and the positional diff.
	phaseCtx = services.WithPhase(ctx, "post")
	post, err := r.source.Snapshot(phaseCtx, handles)
	if err != nil {
		return nil, services.Wrap(nil, "post", "snapshot", "re-capture metadata", err)
	}
	postPath, postDigest, err := r.writer.WritePost(session.ID, post)
	if err != nil {
		return nil, services.Wrap(nil, "post", "persist", "write snapshot", err)
	}
	outcome.PostPath = postPath

	session.Status = sessionstore.StatusPostCaptured
	session.PostDigest = postDigest
	if err := r.store.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("record post status: %w", err)
	}
	logging.WithContext(phaseCtx, r.logger).Info("post snapshot captured",
		logging.String("digest", postDigest))

	// Verification phase.
	phaseCtx = services.WithPhase(ctx, "verify")
	verdict, err := integrity.Compare(baseline, post)
	if err != nil {
		return nil, services.Wrap(nil, "verify", "compare", "compute verdict", err)
	}
	verificationPath, attestationPath, err := r.writer.WriteVerification(session.ID, verdict)
	if err != nil {
		return nil, services.Wrap(nil, "verify", "persist", "write verdict", err)
	}
	outcome.VerificationPath = verificationPath
	outcome.AttestationPath = attestationPath
	outcome.Verdict = verdict

	if verdict.Match {
		session.Status = sessionstore.StatusVerifiedPass
	} else {
		session.Status = sessionstore.StatusVerifiedFail
	}
	verified := verdict.Match
	session.Verified = &verified
	if err := r.store.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("record verification status: %w", err)
	}
	outcome.Status = string(session.Status)

	verifyLogger := logging.WithContext(phaseCtx, r.logger)
	if verdict.Match {
		verifyLogger.Info("verification passed", logging.Int("files", verdict.RecordCount))
	} else {
		verifyLogger.Error("verification failed",
			logging.Int("violations", len(verdict.Violations)),
			logging.String("attestation", attestationPath))
	}
	return outcome, nil
}

// resolve maps each query to a concrete file. Listing sources get fuzzy
// matching with the configured strategy; others take the cleaned query
// verbatim.
func (r *Runner) resolve(ctx context.Context, logger *slog.Logger, queries []string) ([]ResolvedFile, error) {
	lister, canList := r.source.(Lister)
	if !canList {
		resolved := make([]ResolvedFile, len(queries))
		for i, query := range queries {
			clean, _, _ := matching.ParseIndex(query)
			resolved[i] = ResolvedFile{
				Query:  query,
				Name:   clean,
				Handle: clean,
				Reason: "Source cannot enumerate files, using name verbatim",
			}
		}
		return resolved, nil
	}

	candidates, side, err := lister.Candidates(ctx)
	if err != nil {
		return nil, services.Wrap(nil, "resolve", "list candidates", "enumerate files", err)
	}
	if len(candidates) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "resolve", "list candidates", "no files visible to this account", nil)
	}

	strategy, err := matching.ParseStrategy(r.cfg.Matching.Strategy)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "resolve", "strategy", r.cfg.Matching.Strategy, err)
	}
	opts := matching.Options{
		SimilarityThreshold: r.cfg.Matching.SimilarityThreshold,
		DuplicateCloseness:  r.cfg.Matching.DuplicateCloseness,
		MaxResults:          r.cfg.Matching.MaxResults,
	}

	resolved := make([]ResolvedFile, 0, len(queries))
	for _, query := range queries {
		result := matching.FindMatches(query, candidates, opts)
		if result.TotalMatches == 0 {
			return nil, services.Wrap(services.ErrNotFound, "resolve", "match", query, nil)
		}
		if result.HasDuplicates {
			logger.Warn("duplicate file names detected",
				logging.String("query", query),
				logging.Int("groups", len(result.DuplicateGroups)))
		}

		matchSide := alignSide(result, side, candidates)
		selection, ok := matching.Select(result, strategy, matchSide)
		if !ok {
			if r.prompter == nil {
				return nil, services.Wrap(services.ErrValidation, "resolve", "select", fmt.Sprintf(
					"query %q needs interactive disambiguation but no prompter is available", query), nil)
			}
			selection, err = r.prompter.Choose(ctx, query, result)
			if err != nil {
				return nil, services.Wrap(services.ErrValidation, "resolve", "prompt", query, err)
			}
		}

		logger.Info("query resolved",
			logging.String("query", query),
			logging.String("file", selection.Candidate.Name),
			logging.Float64("score", selection.Score),
			logging.String("reason", selection.Reason))
		resolved = append(resolved, ResolvedFile{
			Query:  query,
			Name:   selection.Candidate.Name,
			Handle: selection.Candidate.Handle,
			Score:  selection.Score,
			Reason: selection.Reason,
		})
	}
	return resolved, nil
}

// alignSide reorders candidate side metadata to match the ranked match list
// so metadata-dependent strategies see positionally aligned attributes.
func alignSide(result matching.Result, side []map[string]any, candidates []matching.Candidate) []map[string]any {
	if len(side) != len(candidates) {
		return nil
	}
	byHandle := make(map[string]map[string]any, len(candidates))
	for i, candidate := range candidates {
		byHandle[candidate.Handle] = side[i]
	}
	aligned := make([]map[string]any, len(result.Matches))
	for i, match := range result.Matches {
		aligned[i] = byHandle[match.Candidate.Handle]
	}
	return aligned
}

// historyGaps returns the names of files whose baseline record carries no
// revision history. Records are positionally paired with the resolved names.
func historyGaps(names []string, baseline []integrity.Record) []string {
	var gaps []string
	for i, record := range baseline {
		if i >= len(names) {
			break
		}
		if lacksHistory(record) {
			gaps = append(gaps, names[i])
		}
	}
	return gaps
}

func lacksHistory(record integrity.Record) bool {
	value, ok := record["revision_count"]
	if !ok {
		return true
	}
	switch count := value.(type) {
	case int:
		return count == 0
	case int64:
		return count == 0
	case float64:
		return count == 0
	default:
		return true
	}
}

func (r *Runner) captureScreenshots(ctx context.Context, logger *slog.Logger, sessionID string, names []string) []string {
	destDir := filepath.Join(r.writer.Dir(), fmt.Sprintf("session_%s_screenshots", sessionID))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		logger.Warn("screenshot directory unavailable", logging.Error(err))
		return nil
	}

	var stored []string
	for _, name := range names {
		path, err := r.shooter.ScreenshotFile(ctx, name)
		if err != nil {
			logger.Warn("screenshot failed", logging.String("file", name), logging.Error(err))
			continue
		}
		dest := filepath.Join(destDir, filepath.Base(path))
		if err := fileutil.CopyFileVerified(path, dest); err != nil {
			logger.Warn("screenshot copy failed", logging.String("file", name), logging.Error(err))
			continue
		}
		stored = append(stored, dest)
	}
	return stored
}

func (r *Runner) markFailed(ctx context.Context, session *sessionstore.Session, cause error) {
	session.Status = sessionstore.StatusFailed
	session.ErrorMessage = cause.Error()
	if err := r.store.Update(ctx, session); err != nil {
		r.logger.Error("failed to record session failure", logging.Error(err))
	}
}
