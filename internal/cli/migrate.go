package cli

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table and index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Migrate(); err != nil {
				return err
			}
			if e.json {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"migrated": true, "driver": a.Cfg.DB.Driver})
			}
			success(cmd.OutOrStdout(), "schema migrated (%s)", a.Cfg.DB.Driver)
			return nil
		},
	}
}
