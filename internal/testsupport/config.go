package testsupport

import (
	"path/filepath"
	"testing"

	"custody/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.EvidenceDir = filepath.Join(base, "evidence")
	cfgVal.Paths.ScreenshotDir = filepath.Join(base, "screenshots")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Drive.AccessToken = "test-token"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	return builder.cfg
}

// WithAccessToken sets the Drive API token on the test config.
func WithAccessToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Drive.AccessToken = token
	}
}

// WithStrategy overrides the default selection strategy.
func WithStrategy(strategy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.Strategy = strategy
	}
}

// WithScreenshots toggles screenshot capture on the test config.
func WithScreenshots(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Capture.Screenshots = enabled
	}
}
