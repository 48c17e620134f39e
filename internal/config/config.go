package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// EvidenceDir receives the session report files
	// (session_<id>_BASELINE.json and friends).
	EvidenceDir   string `toml:"evidence_dir"`
	ScreenshotDir string `toml:"screenshot_dir"`
	LogDir        string `toml:"log_dir"`
}

// Drive contains configuration for the Google Drive v3 API client.
type Drive struct {
	BaseURL string `toml:"base_url"`
	// AccessToken is a read-only scoped OAuth bearer token. TokenFile is
	// consulted when the inline token is empty.
	AccessToken string `toml:"access_token"`
	TokenFile   string `toml:"token_file"`
	PageSize    int    `toml:"page_size"`
	// TimeoutSeconds bounds individual API requests.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Browser contains configuration for the WebDriver-based UI fallback.
type Browser struct {
	Enabled bool `toml:"enabled"`
	// WebDriverURL points at a running chromedriver/geckodriver endpoint.
	WebDriverURL   string `toml:"webdriver_url"`
	DriveURL       string `toml:"drive_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	WindowWidth    int    `toml:"window_width"`
	WindowHeight   int    `toml:"window_height"`
}

// Matching tunes the fuzzy name resolver.
type Matching struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	DuplicateCloseness  float64 `toml:"duplicate_closeness"`
	MaxResults          int     `toml:"max_results"`
	// Strategy is the default selection strategy: first, indexed, newest,
	// oldest, largest, or ask.
	Strategy string `toml:"strategy"`
}

// Capture controls the session workflow.
type Capture struct {
	Screenshots bool `toml:"screenshots"`
	// ProbeReadOnly runs the write-probe suite before capturing to confirm
	// the token really is read-only.
	ProbeReadOnly bool `toml:"probe_read_only"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for custody.
//
// Sections by subsystem:
//   - Paths: evidence, screenshot, and log directories
//   - Drive: read-only Drive API access
//   - Browser: WebDriver fallback when API access is unavailable
//   - Matching: fuzzy resolver thresholds and default strategy
//   - Capture: session workflow toggles
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Drive    Drive    `toml:"drive"`
	Browser  Browser  `toml:"browser"`
	Matching Matching `toml:"matching"`
	Capture  Capture  `toml:"capture"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/custody/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("custody.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a capture session writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.EvidenceDir, c.Paths.ScreenshotDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AccessToken resolves the Drive bearer token: the inline value wins, then
// the token file.
func (c *Config) AccessToken() (string, error) {
	if token := strings.TrimSpace(c.Drive.AccessToken); token != "" {
		return token, nil
	}
	if strings.TrimSpace(c.Drive.TokenFile) == "" {
		return "", errors.New("drive.access_token or drive.token_file must be set")
	}
	data, err := os.ReadFile(c.Drive.TokenFile)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %q is empty", c.Drive.TokenFile)
	}
	return token, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) (string, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return "", fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return "", fmt.Errorf("write sample config: %w", err)
	}
	return expanded, nil
}
