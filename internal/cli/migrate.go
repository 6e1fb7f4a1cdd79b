package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		fmt.Fprintf(cmd.OutOrStdout(), "database %s migrated\n", e.cfg.DatabasePath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
