package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/psyscore/internal/db"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			names, err := db.MigrationNames(a.cfg.DB.Migrations)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", n)
			}
			return nil
		},
	}
}
