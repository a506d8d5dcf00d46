package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/psyscore/internal/middleware"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		user string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for a user id (development)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireSecret(); err != nil {
				return err
			}
			if ttl == 0 {
				ttl = a.cfg.JWT.TTL
			}
			auth, err := middleware.NewAuthenticator(a.cfg.JWT.Secret, a.cfg.JWT.Issuer)
			if err != nil {
				return err
			}
			tok, err := auth.SignToken(user, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id to embed as the uid claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default from jwt.ttl)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
