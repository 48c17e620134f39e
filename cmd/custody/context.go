package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"custody/internal/config"
	"custody/internal/logging"
	"custody/internal/report"
	"custody/internal/services/drive"
	"custody/internal/sessionstore"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openStore() (*sessionstore.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return sessionstore.Open(cfg)
}

func (c *commandContext) newWriter() (*report.Writer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return report.NewWriter(cfg.Paths.EvidenceDir)
}

func (c *commandContext) driveClient() (*drive.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	token, err := cfg.AccessToken()
	if err != nil {
		return nil, fmt.Errorf("drive credentials: %w", err)
	}
	timeout := time.Duration(cfg.Drive.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return drive.New(token, cfg.Drive.BaseURL,
		drive.WithPageSize(cfg.Drive.PageSize),
		drive.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
