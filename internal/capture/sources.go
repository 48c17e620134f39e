package capture

import (
	"context"
	"errors"
	"fmt"

	"custody/internal/integrity"
	"custody/internal/matching"
	"custody/internal/services/drive"
	"custody/internal/uiscrape"
)

// DriveSource captures metadata through the Drive API. It can enumerate
// files, so queries get full fuzzy resolution.
type DriveSource struct {
	client     drive.Searcher
	listQuery  string
	maxResults int
}

var (
	_ Source = (*DriveSource)(nil)
	_ Lister = (*DriveSource)(nil)
)

// NewDriveSource wraps a Drive client. listQuery optionally narrows the
// candidate set with a Drive query expression; maxResults caps enumeration.
func NewDriveSource(client drive.Searcher, listQuery string, maxResults int) (*DriveSource, error) {
	if client == nil {
		return nil, errors.New("drive client required")
	}
	return &DriveSource{client: client, listQuery: listQuery, maxResults: maxResults}, nil
}

// Candidates enumerates visible files. The raw file metadata doubles as side
// metadata for newest/oldest/largest strategies.
func (s *DriveSource) Candidates(ctx context.Context) ([]matching.Candidate, []map[string]any, error) {
	files, err := s.client.ListFiles(ctx, s.listQuery, s.maxResults)
	if err != nil {
		return nil, nil, err
	}
	candidates := make([]matching.Candidate, 0, len(files))
	side := make([]map[string]any, 0, len(files))
	for _, file := range files {
		if file.ID() == "" || file.Name() == "" {
			continue
		}
		candidates = append(candidates, matching.Candidate{Name: file.Name(), Handle: file.ID()})
		side = append(side, map[string]any(file))
	}
	return candidates, side, nil
}

// Snapshot fetches comprehensive metadata for each file ID in order.
func (s *DriveSource) Snapshot(ctx context.Context, handles []string) ([]integrity.Record, error) {
	records := make([]integrity.Record, 0, len(handles))
	for _, fileID := range handles {
		data, err := s.client.ComprehensiveData(ctx, fileID)
		if err != nil {
			return nil, fmt.Errorf("file %s: %w", fileID, err)
		}
		record := make(integrity.Record, len(data.File)+2)
		for key, value := range data.File {
			record[key] = value
		}
		record["revision_count"] = data.RevisionCount
		record["comment_count"] = data.CommentCount
		records = append(records, record)
	}
	return records, nil
}

// UISource captures metadata by scraping the Drive web interface. It cannot
// enumerate files, so handles are the file names themselves.
type UISource struct {
	scraper *uiscrape.Scraper
}

var _ Source = (*UISource)(nil)

// NewUISource wraps an opened scraper session.
func NewUISource(scraper *uiscrape.Scraper) (*UISource, error) {
	if scraper == nil {
		return nil, errors.New("scraper required")
	}
	return &UISource{scraper: scraper}, nil
}

// Snapshot scrapes each named file. Any failure aborts the capture: a
// partial snapshot would silently change the record count between baseline
// and post and poison the digest comparison.
func (s *UISource) Snapshot(ctx context.Context, handles []string) ([]integrity.Record, error) {
	records, failures := s.scraper.ScrapeFiles(ctx, handles)
	if len(failures) > 0 {
		return nil, errors.Join(failures...)
	}
	return records, nil
}
