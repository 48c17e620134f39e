package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDrive()
	c.normalizeBrowser()
	c.normalizeMatching()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.EvidenceDir, err = expandPath(c.Paths.EvidenceDir); err != nil {
		return fmt.Errorf("paths.evidence_dir: %w", err)
	}
	if c.Paths.ScreenshotDir, err = expandPath(c.Paths.ScreenshotDir); err != nil {
		return fmt.Errorf("paths.screenshot_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Drive.TokenFile != "" {
		if c.Drive.TokenFile, err = expandPath(c.Drive.TokenFile); err != nil {
			return fmt.Errorf("drive.token_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeDrive() {
	c.Drive.BaseURL = strings.TrimRight(strings.TrimSpace(c.Drive.BaseURL), "/")
	c.Drive.AccessToken = strings.TrimSpace(c.Drive.AccessToken)
	if c.Drive.PageSize <= 0 {
		c.Drive.PageSize = defaultDrivePageSize
	}
	if c.Drive.TimeoutSeconds <= 0 {
		c.Drive.TimeoutSeconds = defaultDriveTimeoutSeconds
	}
}

func (c *Config) normalizeBrowser() {
	c.Browser.WebDriverURL = strings.TrimRight(strings.TrimSpace(c.Browser.WebDriverURL), "/")
	c.Browser.DriveURL = strings.TrimSpace(c.Browser.DriveURL)
	if c.Browser.TimeoutSeconds <= 0 {
		c.Browser.TimeoutSeconds = defaultBrowserTimeout
	}
	if c.Browser.WindowWidth <= 0 {
		c.Browser.WindowWidth = defaultWindowWidth
	}
	if c.Browser.WindowHeight <= 0 {
		c.Browser.WindowHeight = defaultWindowHeight
	}
}

func (c *Config) normalizeMatching() {
	c.Matching.Strategy = strings.ToLower(strings.TrimSpace(c.Matching.Strategy))
	if c.Matching.Strategy == "" {
		c.Matching.Strategy = defaultStrategy
	}
	if c.Matching.MaxResults <= 0 {
		c.Matching.MaxResults = defaultMaxResults
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
