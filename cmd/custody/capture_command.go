package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"custody/internal/capture"
	"custody/internal/services"
	"custody/internal/services/drive"
	"custody/internal/services/webdriver"
	"custody/internal/uiscrape"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var useUI bool
	var headless bool
	var skipProbe bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "capture <file-name>...",
		Short: "Capture baseline and post snapshots, then verify",
		Long: "Runs the full evidence workflow for the named files: resolves " +
			"each name to a file, captures a baseline snapshot, captures a second " +
			"snapshot, and verifies the two by SHA-256 comparison. All evidence " +
			"is written to the configured evidence directory and the session is " +
			"recorded locally.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			writer, err := ctx.newWriter()
			if err != nil {
				return err
			}

			runnerOpts := []capture.Option{
				capture.WithPrompter(newStdinPrompter(cmd.InOrStdin(), cmd.OutOrStdout())),
			}

			var source capture.Source
			if useUI || cfg.Browser.Enabled {
				driver, err := webdriver.New(cfg.Browser.WebDriverURL)
				if err != nil {
					return err
				}
				if err := driver.NewSession(cmd.Context(), webdriver.SessionOptions{
					Headless:     headless,
					WindowWidth:  cfg.Browser.WindowWidth,
					WindowHeight: cfg.Browser.WindowHeight,
				}); err != nil {
					return err
				}
				defer driver.DeleteSession(cmd.Context())

				scraper := uiscrape.New(driver, logger,
					uiscrape.WithDriveURL(cfg.Browser.DriveURL),
					uiscrape.WithScreenshotDir(cfg.Paths.ScreenshotDir),
				)
				if err := scraper.Open(cmd.Context()); err != nil {
					return err
				}
				source, err = capture.NewUISource(scraper)
				if err != nil {
					return err
				}
				if cfg.Capture.Screenshots {
					runnerOpts = append(runnerOpts, capture.WithScreenshotter(scraper))
				}
			} else {
				client, err := ctx.driveClient()
				if err != nil {
					return err
				}
				if cfg.Capture.ProbeReadOnly && !skipProbe {
					results, err := client.ProbeReadOnly(cmd.Context())
					if err != nil {
						return err
					}
					if !drive.ProbeAllBlocked(results) {
						return services.Wrap(services.ErrConfiguration, "capture", "scope probe",
							"token accepted a write operation, use a read-only token", nil)
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Read-only scope confirmed.")
				}
				source, err = capture.NewDriveSource(client, "", cfg.Drive.PageSize)
				if err != nil {
					return err
				}
			}

			runner, err := capture.NewRunner(cfg, store, source, writer, logger, runnerOpts...)
			if err != nil {
				return err
			}

			outcome, err := runner.Run(cmd.Context(), args)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, outcome)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s (%s)\n", outcome.SessionID, outcome.Status)
			for _, resolved := range outcome.Resolved {
				fmt.Fprintf(out, "  %q -> %s (%.1f%%) %s\n", resolved.Query, resolved.Name, resolved.Score*100, resolved.Reason)
			}
			fmt.Fprintf(out, "Baseline:     %s\n", outcome.BaselinePath)
			fmt.Fprintf(out, "Post:         %s\n", outcome.PostPath)
			fmt.Fprintf(out, "Verification: %s\n", outcome.VerificationPath)
			fmt.Fprintf(out, "Attestation:  %s\n", outcome.AttestationPath)
			for _, name := range outcome.HistoryGaps {
				fmt.Fprintf(out, "No revision history: %s\n", name)
			}
			for _, path := range outcome.Screenshots {
				fmt.Fprintf(out, "Screenshot:   %s\n", path)
			}
			fmt.Fprintln(out)
			renderVerdict(out, outcome.Verdict)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useUI, "ui", false, "Capture via browser UI scraping instead of the API")
	cmd.Flags().BoolVar(&headless, "headless", true, "Run the browser headless (UI capture only)")
	cmd.Flags().BoolVar(&skipProbe, "skip-probe", false, "Skip the read-only scope probe")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the capture outcome as JSON")
	return cmd
}
