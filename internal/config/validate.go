package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDrive(); err != nil {
		return err
	}
	if err := c.validateBrowser(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.EvidenceDir == "" {
		return errors.New("paths.evidence_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateDrive() error {
	if c.Drive.BaseURL == "" {
		return errors.New("drive.base_url must be set")
	}
	if c.Drive.PageSize > 1000 {
		return errors.New("drive.page_size must not exceed 1000")
	}
	return nil
}

func (c *Config) validateBrowser() error {
	if !c.Browser.Enabled {
		return nil
	}
	if c.Browser.WebDriverURL == "" {
		return errors.New("browser.webdriver_url must be set when browser.enabled is true")
	}
	if c.Browser.DriveURL == "" {
		return errors.New("browser.drive_url must be set when browser.enabled is true")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.SimilarityThreshold < 0 || c.Matching.SimilarityThreshold > 1 {
		return errors.New("matching.similarity_threshold must be between 0 and 1")
	}
	if c.Matching.DuplicateCloseness < 0 || c.Matching.DuplicateCloseness > 1 {
		return errors.New("matching.duplicate_closeness must be between 0 and 1")
	}
	switch c.Matching.Strategy {
	case "first", "indexed", "newest", "oldest", "largest", "ask":
		return nil
	default:
		return fmt.Errorf("matching.strategy %q is not one of first, indexed, newest, oldest, largest, ask", c.Matching.Strategy)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of console, json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}
