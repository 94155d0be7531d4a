package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
)

func newPurgeRefreshCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-refresh",
		Short: "Borra los refresh tokens expirados",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ct, err := c.container(cmd.Context())
			if err != nil {
				return err
			}
			defer ct.Close()
			if err := requireDB(ct); err != nil {
				return err
			}

			n, err := ct.Refresh.DeleteExpired(cmd.Context())
			if err != nil {
				return err
			}
			logger.S().Infof("purged %d expired refresh tokens", n)
			cmd.Printf("%d expired refresh tokens deleted\n", n)
			return nil
		},
	}
}

func newRevokeUserCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-user <user-id>",
		Short: "Revoca todos los refresh y access tokens emitidos a un usuario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
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
			if ct.Config.Cache.Kind != "redis" {
				cmd.PrintErrln("warning: cache.kind is not redis, the access-token cutoff only lives in this process")
			}

			affected, err := ct.Refresh.RevokeAllForUser(ctx, userID)
			if err != nil {
				return err
			}
			if err := ct.Revocations.RevokeUser(ctx, userID, time.Now()); err != nil {
				return err
			}
			logger.S().Infow("user revoked", "user_id", userID, "refresh_tokens_revoked", affected)
			cmd.Printf("user %d revoked (refresh tokens affected: %t)\n", userID, affected)
			return nil
		},
	}
}
