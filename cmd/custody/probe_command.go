package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"custody/internal/services"
	"custody/internal/services/drive"
)

func newProbeReadOnlyCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe-readonly",
		Short: "Verify the Drive token cannot modify files",
		Long: "Attempts the write operations a read-only scope must reject: file " +
			"creation, update, deletion, copy, and permission change. Every " +
			"operation rejected confirms the token is safe for evidence capture; " +
			"any accepted write means the token is over-scoped and must be replaced.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.driveClient()
			if err != nil {
				return err
			}
			results, err := client.ProbeReadOnly(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, results)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				verdict := paint(colorize, passColor, "blocked")
				if result.Allowed {
					verdict = paint(colorize, failColor, "ALLOWED")
				}
				rows = append(rows, []string{result.Operation, verdict, result.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Operation", "Result", "Detail"}, rows))

			if !drive.ProbeAllBlocked(results) {
				return services.Wrap(services.ErrConfiguration, "probe", "scope check",
					"token accepted a write operation, use a read-only token", nil)
			}
			fmt.Fprintln(out, "Token is read-only: every write attempt was rejected by the API.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit probe results as JSON")
	return cmd
}
