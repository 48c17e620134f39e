package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Show the Drive account the token belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.driveClient()
			if err != nil {
				return err
			}
			about, err := client.About(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, about)
			}
			rows := [][]string{
				{"Display name", about.User.DisplayName},
				{"Email", about.User.EmailAddress},
				{"Permission ID", about.User.PermissionID},
				{"Storage used", formatQuota(about.StorageQuota.Usage)},
				{"Storage limit", formatQuota(about.StorageQuota.Limit)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit account details as JSON")
	return cmd
}

func formatQuota(raw string) string {
	if raw == "" {
		return "unlimited"
	}
	return raw + " bytes"
}
