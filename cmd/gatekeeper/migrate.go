package main

import (
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/gatekeeper/internal/store/dbx"
	migrations "github.com/dropDatabas3/gatekeeper/migrations/postgres"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones de Postgres (o muestra su estado con --status)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ct, err := c.container(ctx)
			if err != nil {
				return err
			}
			defer ct.Close()
			if err := requireDB(ct); err != nil {
				return err
			}

			if status {
				return dbx.MigrationStatus(ctx, ct.DB, migrations.FS, migrations.Dir)
			}
			if err := dbx.Migrate(ctx, ct.DB, migrations.FS, migrations.Dir); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "sólo mostrar el estado")
	return cmd
}
