// Package uiscrape extracts file metadata from the Drive web interface
// through a WebDriver session. It exists for captures where API credentials
// are unavailable: it drives Drive's search box, opens the details panel for
// each file, and reads the visible fields into metadata records, optionally
// capturing screenshots as corroborating evidence.
//
// UI-scraped values are display strings, not API timestamps, so records from
// this path are only comparable against other UI captures.
package uiscrape
