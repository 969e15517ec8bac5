package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerd/internal/store/pgstore"
)

func newMigrateCommand(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			pg, ok := a.store.(*pgstore.Store)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Storage driver %s has no schema to migrate\n", a.cfg.Storage.Driver)
				return nil
			}
			if err := pg.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema up to date")
			return nil
		},
	}
}
