package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newMigrateCmd creates the migrate command
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the job tracking database",
		Long: `Apply pending schema migrations to the job tracking database.

Opening the store from any command also migrates, so this mainly exists
to initialize the database explicitly and to report the schema version.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cmd, cfg.Config)
			if err != nil {
				return err
			}
			defer store.Close()

			versions, err := store.AppliedMigrations(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"dialect":  store.Dialect(),
					"versions": versions,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database up to date (%s, %d migration(s) applied)\n",
				store.Dialect(), len(versions))
			return nil
		},
	}
}
