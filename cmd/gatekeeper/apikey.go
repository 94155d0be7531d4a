package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/gatekeeper/internal/store/apikey"
)

func newAPIKeyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Gestión de API keys",
	}

	var nk apikey.NewKey
	create := &cobra.Command{
		Use:   "create",
		Short: "Crea una API key; la key en claro se muestra una única vez",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if nk.Name == "" {
				return errors.New("--name is required")
			}
			ctx := cmd.Context()
			ct, err := c.container(ctx)
			if err != nil {
				return err
			}
			defer ct.Close()
			if err := requireDB(ct); err != nil {
				return err
			}

			created, err := ct.APIKeys.Create(ctx, nk)
			if err != nil {
				return err
			}
			cmd.Printf("id:     %d\nprefix: %s\nkey:    %s\n", created.Key.ID, created.Key.Prefix, created.Raw)
			return nil
		},
	}
	f := create.Flags()
	f.StringVar(&nk.Name, "name", "", "nombre descriptivo")
	f.Int64Var(&nk.RateLimit, "limit", 0, "requests por ventana para la key (0 = default)")
	f.DurationVar(&nk.Window, "window", time.Duration(0), "ventana del rate limit (0 = default)")
	f.Int64Var(&nk.UserRateLimit, "user-limit", 0, "sub-límite por usuario (0 = default)")
	f.Int64Var(&nk.IPRateLimit, "ip-limit", 0, "sub-límite por IP (0 = default)")

	cmd.AddCommand(create)
	return cmd
}
