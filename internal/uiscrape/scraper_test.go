package uiscrape_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"custody/internal/logging"
	"custody/internal/services/webdriver"
	"custody/internal/uiscrape"
)

const elementKey = "element-6066-11e4-a52e-4f735466cecf"

// fakeDrive emulates the handful of WebDriver endpoints the scraper touches
// against a pretend Drive page holding one file.
type fakeDrive struct {
	t           *testing.T
	fileTooltip string
	fieldValues map[string]string
	searched    string
	clicked     []string
	menuOpened  bool
}

func (f *fakeDrive) handler() http.HandlerFunc {
	writeValue := func(w http.ResponseWriter, value any) {
		_ = json.NewEncoder(w).Encode(map[string]any{"value": value})
	}
	elementRef := func(id string) map[string]string {
		return map[string]string{elementKey: id}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/session":
			writeValue(w, map[string]any{"sessionId": "s-1"})

		case r.URL.Path == "/session/s-1/url":
			writeValue(w, nil)

		case r.URL.Path == "/session/s-1/element":
			value, _ := body["value"].(string)
			switch {
			case strings.Contains(value, "Search"):
				writeValue(w, elementRef("e-search"))
			case strings.Contains(value, "File information") && f.menuOpened:
				writeValue(w, elementRef("e-menu"))
			default:
				w.WriteHeader(http.StatusNotFound)
				writeValue(w, map[string]string{"error": "no such element", "message": value})
			}

		case r.URL.Path == "/session/s-1/elements":
			value, _ := body["value"].(string)
			if value == "[data-tooltip]" {
				writeValue(w, []map[string]string{elementRef("e-file")})
				return
			}
			writeValue(w, []map[string]string{})

		case r.URL.Path == "/session/s-1/element/e-file/attribute/data-tooltip":
			writeValue(w, f.fileTooltip)

		case r.URL.Path == "/session/s-1/element/e-search/clear":
			writeValue(w, nil)

		case r.URL.Path == "/session/s-1/element/e-search/value":
			text, _ := body["text"].(string)
			f.searched = text
			writeValue(w, nil)

		case strings.HasSuffix(r.URL.Path, "/click"):
			parts := strings.Split(r.URL.Path, "/")
			f.clicked = append(f.clicked, parts[len(parts)-2])
			writeValue(w, nil)

		case r.URL.Path == "/session/s-1/actions":
			f.menuOpened = true
			writeValue(w, nil)

		case r.URL.Path == "/session/s-1/execute/sync":
			args, _ := body["args"].([]any)
			if len(args) == 1 {
				if label, ok := args[0].(string); ok {
					if value, found := f.fieldValues[label]; found {
						writeValue(w, value)
						return
					}
				}
			}
			writeValue(w, nil)

		default:
			f.t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}
}

func newScraper(t *testing.T, fake *fakeDrive) *uiscrape.Scraper {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	driver, err := webdriver.New(server.URL)
	if err != nil {
		t.Fatalf("webdriver.New returned error: %v", err)
	}
	if err := driver.NewSession(context.Background(), webdriver.SessionOptions{}); err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	return uiscrape.New(driver, logging.NewNop(),
		uiscrape.WithSettleDelay(0),
		uiscrape.WithTimeout(500*time.Millisecond),
	)
}

func TestScrapeFileHappyPath(t *testing.T) {
	fake := &fakeDrive{
		t:           t,
		fileTooltip: "Budget 2024.xlsx Spreadsheet",
		fieldValues: map[string]string{
			"Type":     "Spreadsheet",
			"Owner":    "me",
			"Modified": "Mar 3, 2024",
			"Created":  "Jan 15, 2024",
		},
	}
	scraper := newScraper(t, fake)

	record, err := scraper.ScrapeFile(context.Background(), "Budget 2024.xlsx")
	if err != nil {
		t.Fatalf("ScrapeFile returned error: %v", err)
	}

	if fake.searched != "Budget 2024.xlsx"+webdriver.KeyEnter {
		t.Fatalf("unexpected search input %q", fake.searched)
	}
	if record["name"] != "Budget 2024.xlsx" {
		t.Fatalf("expected name in record, got %#v", record)
	}
	if record["modifiedTime"] != "Mar 3, 2024" {
		t.Fatalf("expected modified field, got %#v", record["modifiedTime"])
	}
	if record["size"] != "Unknown" {
		t.Fatalf("expected missing field to be Unknown, got %#v", record["size"])
	}
	if record["scrape_method"] != "ui" {
		t.Fatalf("expected scrape_method ui, got %#v", record["scrape_method"])
	}
}

func TestScrapeFileMissingFileFails(t *testing.T) {
	fake := &fakeDrive{t: t, fileTooltip: "Unrelated.pdf"}
	scraper := newScraper(t, fake)

	if _, err := scraper.ScrapeFile(context.Background(), "Budget 2024.xlsx"); err == nil {
		t.Fatal("expected error when file absent from results")
	}
}

func TestScrapeDetailsAllUnknownFails(t *testing.T) {
	fake := &fakeDrive{
		t:           t,
		fileTooltip: "Budget 2024.xlsx",
		fieldValues: map[string]string{},
	}
	scraper := newScraper(t, fake)

	if _, err := scraper.ScrapeFile(context.Background(), "Budget 2024.xlsx"); err == nil {
		t.Fatal("expected error when every field is Unknown")
	}
}

func TestScrapeFilesSkipsFailures(t *testing.T) {
	fake := &fakeDrive{
		t:           t,
		fileTooltip: "Budget 2024.xlsx",
		fieldValues: map[string]string{"Type": "Spreadsheet"},
	}
	scraper := newScraper(t, fake)

	records, failures := scraper.ScrapeFiles(context.Background(), []string{"Budget 2024.xlsx", "Missing.doc"})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if len(failures) != 1 || !strings.Contains(failures[0].Error(), "Missing.doc") {
		t.Fatalf("expected failure for Missing.doc, got %v", failures)
	}
}
