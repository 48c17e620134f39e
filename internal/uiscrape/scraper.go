package uiscrape

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"custody/internal/integrity"
	"custody/internal/logging"
	"custody/internal/services"
	"custody/internal/services/webdriver"
)

// DefaultDriveURL is the My Drive landing page.
const DefaultDriveURL = "https://drive.google.com/drive/my-drive"

// unknownValue marks details-panel fields that could not be located.
const unknownValue = "Unknown"

// detailFields maps output keys to the panel labels that may carry them.
// Drive renames labels between rollouts, so each field lists alternates.
var detailFields = []struct {
	key    string
	labels []string
}{
	{"type", []string{"Type", "File type", "Kind"}},
	{"size", []string{"Size", "Storage used"}},
	{"owner", []string{"Owner", "Owned by"}},
	{"modifiedTime", []string{"Modified", "Last modified", "Modified by me"}},
	{"viewedByMeTime", []string{"Opened", "Opened by me", "Last opened"}},
	{"createdTime", []string{"Created", "Date created"}},
	{"location", []string{"Location", "Folder", "Parent folder"}},
}

// detailMenuEntries are the context-menu labels that open the details pane.
var detailMenuEntries = []string{"File information", "View details", "Details", "Show details"}

// labelValueScript finds the element containing the label text and returns
// the text of its next sibling, mirroring the layout of the details panel.
const labelValueScript = `
const label = arguments[0];
const nodes = [...document.querySelectorAll('*')];
const match = nodes.find(el => el.childElementCount === 0 && el.textContent.trim() === label);
if (match) {
	let cursor = match;
	while (cursor && !cursor.nextElementSibling) {
		cursor = cursor.parentElement;
	}
	if (cursor && cursor.nextElementSibling) {
		return cursor.nextElementSibling.textContent.trim();
	}
}
return null;
`

// Scraper extracts file metadata from the Drive web interface when API
// access is unavailable.
type Scraper struct {
	driver        *webdriver.Client
	logger        *slog.Logger
	driveURL      string
	screenshotDir string
	settle        time.Duration
	timeout       time.Duration
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithDriveURL overrides the Drive landing page.
func WithDriveURL(u string) Option {
	return func(s *Scraper) {
		if strings.TrimSpace(u) != "" {
			s.driveURL = strings.TrimRight(u, "/")
		}
	}
}

// WithScreenshotDir enables screenshot capture alongside scraped metadata.
func WithScreenshotDir(dir string) Option {
	return func(s *Scraper) { s.screenshotDir = dir }
}

// WithSettleDelay overrides the pause after UI interactions. Tests shrink it.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Scraper) {
		if d >= 0 {
			s.settle = d
		}
	}
}

// WithTimeout bounds element waits.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a scraper bound to an active webdriver session.
func New(driver *webdriver.Client, logger *slog.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		driver:   driver,
		logger:   logging.NewComponentLogger(logger, "uiscrape"),
		driveURL: DefaultDriveURL,
		settle:   2 * time.Second,
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open navigates to Drive and waits for the search box, confirming the user
// is signed in.
func (s *Scraper) Open(ctx context.Context) error {
	if err := s.driver.Navigate(ctx, s.driveURL); err != nil {
		return services.Wrap(services.ErrExternalTool, "ui", "open drive", "navigate", err)
	}
	if _, err := s.waitForElement(ctx, webdriver.ByCSSSelector, `input[aria-label*="Search"]`); err != nil {
		return services.Wrap(services.ErrExternalTool, "ui", "open drive",
			"search box never appeared, check that the browser session is signed in", err)
	}
	s.logger.Info("drive ui loaded")
	return nil
}

// Search enters the file name into Drive's search box and submits it.
func (s *Scraper) Search(ctx context.Context, fileName string) error {
	box, err := s.waitForElement(ctx, webdriver.ByCSSSelector, `input[aria-label*="Search"]`)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "ui", "search", "locate search box", err)
	}
	if err := box.Clear(ctx); err != nil {
		return services.Wrap(services.ErrExternalTool, "ui", "search", "clear search box", err)
	}
	if err := box.SendKeys(ctx, fileName+webdriver.KeyEnter); err != nil {
		return services.Wrap(services.ErrExternalTool, "ui", "search", "submit query", err)
	}
	s.pause(ctx)
	return nil
}

// findFile locates the search-result element for the file. Drive's DOM is
// unstable across rollouts, so three strategies are tried in order:
// data-tooltip, aria-label, then raw text content.
func (s *Scraper) findFile(ctx context.Context, fileName string) (*webdriver.Element, error) {
	needle := strings.ToLower(fileName)

	elements, err := s.driver.FindElements(ctx, webdriver.ByCSSSelector, "[data-tooltip]")
	if err != nil {
		return nil, err
	}
	for _, el := range elements {
		tooltip, err := el.Attribute(ctx, "data-tooltip")
		if err != nil {
			continue
		}
		if tooltip != "" && strings.Contains(strings.ToLower(tooltip), needle) {
			s.logger.Debug("file located", logging.String("method", "tooltip"))
			return el, nil
		}
	}

	elements, err = s.driver.FindElements(ctx, webdriver.ByCSSSelector, "[aria-label]")
	if err != nil {
		return nil, err
	}
	for _, el := range elements {
		label, err := el.Attribute(ctx, "aria-label")
		if err != nil {
			continue
		}
		if label != "" && strings.Contains(strings.ToLower(label), needle) {
			s.logger.Debug("file located", logging.String("method", "aria-label"))
			return el, nil
		}
	}

	search := fileName
	if len(search) > 30 {
		search = search[:30]
	}
	xpath := fmt.Sprintf("//*[contains(text(), %s)]", xpathLiteral(search))
	elements, err = s.driver.FindElements(ctx, webdriver.ByXPath, xpath)
	if err != nil {
		return nil, err
	}
	if len(elements) > 0 {
		s.logger.Debug("file located", logging.String("method", "text"))
		return elements[0], nil
	}

	return nil, services.Wrap(services.ErrNotFound, "ui", "find file", fileName, nil)
}

// OpenDetails selects the file and opens its details pane via the context
// menu.
func (s *Scraper) OpenDetails(ctx context.Context, fileName string) error {
	target, err := s.findFile(ctx, fileName)
	if err != nil {
		return err
	}
	if err := target.Click(ctx); err != nil {
		return services.Wrap(services.ErrExternalTool, "ui", "open details", "select file", err)
	}
	s.pause(ctx)

	if err := s.driver.ContextClick(ctx, target); err != nil {
		return services.Wrap(services.ErrExternalTool, "ui", "open details", "context click", err)
	}
	s.pause(ctx)

	for _, entry := range detailMenuEntries {
		xpath := fmt.Sprintf("//*[contains(text(), %s)]", xpathLiteral(entry))
		option, err := s.driver.FindElement(ctx, webdriver.ByXPath, xpath)
		if err != nil {
			continue
		}
		if err := option.Click(ctx); err != nil {
			continue
		}
		s.pause(ctx)
		s.logger.Debug("details pane opened", logging.String("menu_entry", entry))
		return nil
	}

	// Dismiss the menu and fall back to the keyboard shortcut.
	_ = s.driver.SendKeysActive(ctx, webdriver.KeyEscape)
	return services.Wrap(services.ErrExternalTool, "ui", "open details",
		"details entry missing from context menu", nil)
}

// ScrapeDetails reads the open details panel into a metadata record. Fields
// that cannot be located are recorded as Unknown rather than omitted so the
// record shape stays stable across captures.
func (s *Scraper) ScrapeDetails(ctx context.Context) (integrity.Record, error) {
	record := integrity.Record{
		"scrape_time":   time.Now().UTC().Format(time.RFC3339),
		"scrape_method": "ui",
	}

	found := false
	for _, field := range detailFields {
		value := unknownValue
		for _, label := range field.labels {
			var result *string
			err := s.driver.ExecuteScript(ctx, labelValueScript, []any{label}, &result)
			if err == nil && result != nil && strings.TrimSpace(*result) != "" {
				value = strings.TrimSpace(*result)
				found = true
				break
			}
		}
		record[field.key] = value
	}

	if !found {
		return record, services.Wrap(services.ErrExternalTool, "ui", "scrape details",
			"every field resolved to Unknown, details panel may not be loaded", nil)
	}
	return record, nil
}

// ScrapeFile runs the complete workflow for one file: search, open details,
// scrape, dismiss the panel.
func (s *Scraper) ScrapeFile(ctx context.Context, fileName string) (integrity.Record, error) {
	logger := s.logger.With(logging.String("file", fileName))
	logger.Info("scraping file metadata")

	if err := s.Search(ctx, fileName); err != nil {
		return nil, err
	}
	if err := s.OpenDetails(ctx, fileName); err != nil {
		return nil, err
	}
	record, err := s.ScrapeDetails(ctx)
	if err != nil {
		return nil, err
	}
	record["name"] = fileName

	if s.screenshotDir != "" {
		if path, err := s.captureScreenshot(ctx, fileName); err != nil {
			logger.Warn("screenshot capture failed", logging.Error(err))
		} else {
			record["screenshot"] = path
		}
	}

	_ = s.driver.SendKeysActive(ctx, webdriver.KeyEscape)
	s.pause(ctx)

	logger.Info("file metadata scraped")
	return record, nil
}

// ScrapeFiles scrapes each file in turn. Files that fail are skipped and
// reported through the returned error slice so one bad file does not abort
// an evidence capture.
func (s *Scraper) ScrapeFiles(ctx context.Context, fileNames []string) ([]integrity.Record, []error) {
	records := make([]integrity.Record, 0, len(fileNames))
	var failures []error
	for _, name := range fileNames {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}
		record, err := s.ScrapeFile(ctx, name)
		if err != nil {
			s.logger.Warn("skipping file", logging.String("file", name), logging.Error(err))
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
			continue
		}
		records = append(records, record)
	}
	return records, failures
}

// ScreenshotFile searches for the file and captures the result view. It
// requires a configured screenshot directory.
func (s *Scraper) ScreenshotFile(ctx context.Context, fileName string) (string, error) {
	if s.screenshotDir == "" {
		return "", services.Wrap(services.ErrConfiguration, "ui", "screenshot", "screenshot directory not configured", nil)
	}
	if err := s.Search(ctx, fileName); err != nil {
		return "", err
	}
	return s.captureScreenshot(ctx, fileName)
}

func (s *Scraper) captureScreenshot(ctx context.Context, fileName string) (string, error) {
	data, err := s.driver.Screenshot(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.screenshotDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s.png", sanitizeFileName(fileName), time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(s.screenshotDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Scraper) waitForElement(ctx context.Context, using, selector string) (*webdriver.Element, error) {
	deadline := time.Now().Add(s.timeout)
	for {
		el, err := s.driver.FindElement(ctx, using, selector)
		if err == nil {
			return el, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}

func (s *Scraper) pause(ctx context.Context) {
	if s.settle <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.settle):
	}
}

func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", " ", "_")
	return replacer.Replace(name)
}

// xpathLiteral quotes a string for embedding in an XPath expression, using
// concat when the value contains both quote kinds.
func xpathLiteral(value string) string {
	if !strings.Contains(value, "'") {
		return "'" + value + "'"
	}
	if !strings.Contains(value, `"`) {
		return `"` + value + `"`
	}
	parts := strings.Split(value, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+part+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
