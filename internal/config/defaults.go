package config

const (
	defaultEvidenceDir         = "~/.local/share/custody/evidence"
	defaultScreenshotDir       = "~/.local/share/custody/screenshots"
	defaultLogDir              = "~/.local/share/custody/logs"
	defaultDriveBaseURL        = "https://www.googleapis.com/drive/v3"
	defaultDrivePageSize       = 100
	defaultDriveTimeoutSeconds = 30
	defaultWebDriverURL        = "http://127.0.0.1:9515"
	defaultDriveWebURL         = "https://drive.google.com/drive/my-drive"
	defaultBrowserTimeout      = 60
	defaultWindowWidth         = 1920
	defaultWindowHeight        = 1080
	defaultSimilarityThreshold = 0.6
	defaultDuplicateCloseness  = 0.95
	defaultMaxResults          = 10
	defaultStrategy            = "first"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			EvidenceDir:   defaultEvidenceDir,
			ScreenshotDir: defaultScreenshotDir,
			LogDir:        defaultLogDir,
		},
		Drive: Drive{
			BaseURL:        defaultDriveBaseURL,
			PageSize:       defaultDrivePageSize,
			TimeoutSeconds: defaultDriveTimeoutSeconds,
		},
		Browser: Browser{
			WebDriverURL:   defaultWebDriverURL,
			DriveURL:       defaultDriveWebURL,
			TimeoutSeconds: defaultBrowserTimeout,
			WindowWidth:    defaultWindowWidth,
			WindowHeight:   defaultWindowHeight,
		},
		Matching: Matching{
			SimilarityThreshold: defaultSimilarityThreshold,
			DuplicateCloseness:  defaultDuplicateCloseness,
			MaxResults:          defaultMaxResults,
			Strategy:            defaultStrategy,
		},
		Capture: Capture{
			Screenshots:   true,
			ProbeReadOnly: false,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
